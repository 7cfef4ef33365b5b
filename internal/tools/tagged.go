package tools

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/parser"
	"github.com/starford/idmkit/internal/tool"
)

// Tagged keeps the items that carry every given tag.
func Tagged() *tool.Tool {
	return &tool.Tool{
		Name:      "tagged",
		Usage:     "Filter items that have all the given tags",
		ArgsUsage: "TAG...",
		IO:        true,
		InputArg:  -1,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "flatten",
				Usage: "List matching items at the top level instead of keeping their parents",
			},
		},
		Run: func(_ context.Context, env *tool.Env) error {
			tags := env.Cmd.Args().Slice()
			if len(tags) == 0 {
				return fmt.Errorf("tagged: %w: no tags given", apperr.ErrInvalidInputSpec)
			}
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			if env.Cmd.Bool("flatten") {
				return env.Pipe.Write(CollectTagged(o, tags))
			}
			return env.Pipe.Write(PruneTagged(o, tags))
		},
	}
}

// tagScope is the tag context of one section: the tags that decide whether
// the section itself matches, and the tags its children inherit.
type tagScope struct {
	match    tagSet
	children tagSet
}

// descendTags extends the inherited tags with the section's own tags. A
// WikiWord headline adds its kebab-case form for the children only.
func descendTags(inherited tagSet, s *outline.Section) tagScope {
	match := inherited.with(s.Tags()...)
	children := match
	if title, ok := s.WikiTitle(); ok {
		children = match.with(parser.CamelToKebab(title))
	}
	return tagScope{match: match, children: children}
}

// matches reports whether s has tags of its own and, together with the
// inherited ones, covers every search tag.
func (sc tagScope) matches(s *outline.Section, search []string) bool {
	return len(s.Tags()) > 0 && sc.match.hasAll(search)
}

func rootTags(o *outline.Outline) tagSet {
	return newTagSet(o.Attrs.Fields("tags")...)
}

// CollectTagged returns every matching section of o as a flat list, in
// document order. Matches nested inside other matches are listed too.
func CollectTagged(o *outline.Outline, search []string) *outline.Outline {
	c0 := tagScope{children: rootTags(o)}
	descend := func(sc tagScope, s *outline.Section) tagScope { return descendTags(sc.children, s) }

	out := &outline.Outline{}
	for sc, s := range outline.ContextIter(o, c0, descend) {
		if sc.matches(s, search) {
			out.Push(*s)
		}
	}
	return out
}

// PruneTagged keeps matching sections whole and the parents leading to
// them. Attributes of the input are not carried over.
func PruneTagged(o *outline.Outline, search []string) *outline.Outline {
	return prune(o, rootTags(o), search)
}

func prune(o *outline.Outline, inherited tagSet, search []string) *outline.Outline {
	out := &outline.Outline{}
	for i := range o.Sections {
		s := &o.Sections[i]
		sc := descendTags(inherited, s)
		if sc.matches(s, search) {
			out.Push(*s)
			continue
		}
		body := prune(&s.Body, sc.children, search)
		if body.Len() > 0 {
			out.Push(outline.Section{Head: s.Head, Body: *body})
		}
	}
	return out
}
