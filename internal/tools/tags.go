package tools

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/models"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/tool"
)

// ListTags prints the tags used in the input, optionally with counts.
func ListTags() *tool.Tool {
	return &tool.Tool{
		Name:  "list-tags",
		Usage: "List the tags used in the input",
		IO:    true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "histogram",
				Usage: "Show how many items carry each tag, most used first",
			},
		},
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			counts := TagCounts(o)
			var b strings.Builder
			if env.Cmd.Bool("histogram") {
				for _, tc := range Histogram(counts) {
					fmt.Fprintf(&b, "%-32s %d\n", tc.Tag, tc.Count)
				}
			} else {
				for _, tag := range slices.Sorted(maps.Keys(counts)) {
					fmt.Fprintln(&b, tag)
				}
			}
			return env.Pipe.WriteText(b.String())
		},
	}
}

// TagCounts counts, for every tag, the tagged items it applies to. An item
// counts for its own tags and for those inherited from tagged ancestors and
// from the top-level tags attribute.
func TagCounts(o *outline.Outline) map[string]int {
	counts := make(map[string]int)
	descend := func(inherited tagSet, s *outline.Section) tagSet {
		return inherited.with(s.Tags()...)
	}
	for tags, s := range outline.ContextIter(o, rootTags(o), descend) {
		if len(s.Tags()) == 0 {
			continue
		}
		for tag := range tags {
			counts[tag]++
		}
	}
	return counts
}

// Histogram orders counts by count, highest first, then by tag.
func Histogram(counts map[string]int) []models.TagCount {
	hist := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		hist = append(hist, models.TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(hist, func(a, b models.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	return hist
}

// RenameTag replaces one tag with another everywhere.
func RenameTag() *tool.Tool {
	return &tool.Tool{
		Name:      "rename-tag",
		Usage:     "Rename a tag in every item",
		ArgsUsage: "OLD NEW",
		IO:        true,
		InputArg:  2,
		Run: func(_ context.Context, env *tool.Env) error {
			args := env.Cmd.Args()
			if args.Len() < 2 {
				return fmt.Errorf("rename-tag: %w: expected OLD and NEW tags", apperr.ErrInvalidInputSpec)
			}
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			n := RenameTags(o, args.Get(0), args.Get(1))
			env.Logger.Info("renamed tags", slog.Int("count", n))
			return env.Pipe.Write(o)
		},
	}
}

// RenameTags rewrites old to renamed in every tags attribute of o and
// returns the number of rewritten tags. A tag list that already holds the
// new name keeps a single copy.
func RenameTags(o *outline.Outline, old, renamed string) int {
	n := 0
	for _, s := range o.Iter() {
		tags := s.Tags()
		if !slices.Contains(tags, old) {
			continue
		}
		var out []string
		for _, t := range tags {
			if t == old {
				t = renamed
				n++
			}
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
		s.Body.Attrs.SetFields("tags", out)
	}
	return n
}

// ReplaceTags rewrites tags from a replacement table file.
func ReplaceTags() *tool.Tool {
	return &tool.Tool{
		Name:      "replace-tags",
		Usage:     "Replace tags using a table of tag replacements",
		ArgsUsage: "REPLACEMENTS",
		IO:        true,
		InputArg:  1,
		Run: func(_ context.Context, env *tool.Env) error {
			path := env.Cmd.Args().First()
			if path == "" {
				return fmt.Errorf("replace-tags: %w: replacement file is required", apperr.ErrInvalidInputSpec)
			}
			table, err := readReplacements(path)
			if err != nil {
				return err
			}
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			n := ApplyReplacements(o, table)
			env.Logger.Info("replaced tags", slog.Int("count", n))
			return env.Pipe.Write(o)
		},
	}
}

// Replacements maps a tag to the tags that replace it.
type Replacements map[string][]string

// ParseReplacements reads lines of the form
//
//	original-tag replacement-1 replacement-2
//
// A line with a single tag maps it to nothing and leaves it alone.
func ParseReplacements(o *outline.Outline) Replacements {
	r := make(Replacements)
	for i := range o.Sections {
		fields := strings.Fields(o.Sections[i].Head)
		if len(fields) == 0 {
			continue
		}
		r[fields[0]] = fields[1:]
	}
	return r
}

func readReplacements(path string) (Replacements, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	o, err := idm.ParseSource(path, data)
	if err != nil {
		return nil, err
	}
	return ParseReplacements(o), nil
}

// ApplyReplacements rewrites every tags attribute of o and returns how many
// tags were replaced.
//
// The first replacement takes the original tag's place unless the list
// already has it, in which case the original is dropped. The remaining
// replacements are appended when missing. A tag that lists itself among
// its replacements stays and only gains the others.
func ApplyReplacements(o *outline.Outline, r Replacements) int {
	n := 0
	for _, s := range o.Iter() {
		tags := s.Tags()
		if len(tags) == 0 {
			continue
		}
		changed := false
		for i := len(tags) - 1; i >= 0; i-- {
			repl := r[tags[i]]
			if len(repl) == 0 {
				continue
			}
			n++
			changed = true
			if !slices.Contains(repl, tags[i]) {
				if !slices.Contains(tags, repl[0]) {
					tags[i] = repl[0]
				} else {
					tags = slices.Delete(tags, i, i+1)
				}
			}
			for _, t := range repl[1:] {
				if !slices.Contains(tags, t) {
					tags = append(tags, t)
				}
			}
		}
		if changed {
			s.Body.Attrs.SetFields("tags", tags)
		}
	}
	return n
}
