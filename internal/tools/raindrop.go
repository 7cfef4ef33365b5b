package tools

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/tool"
)

// ImportRaindrop converts a Raindrop.io CSV bookmark export into an outline.
func ImportRaindrop() *tool.Tool {
	return &tool.Tool{
		Name:  "import-raindrop",
		Usage: "Convert a Raindrop.io CSV export into bookmark items",
		IO:    true,
		Run: func(_ context.Context, env *tool.Env) error {
			text, err := env.Pipe.ReadText()
			if err != nil {
				return err
			}
			o, err := ReadRaindrop(strings.NewReader(text))
			if err != nil {
				return err
			}
			return env.Pipe.Write(o)
		},
	}
}

// Bookmark is one row of a Raindrop.io export.
type Bookmark struct {
	Title    string
	Note     string
	Excerpt  string
	URL      string
	Tags     []string
	Created  string
	Favorite bool
}

// ReadRaindrop reads bookmarks from CSV with a header row. Columns are
// looked up by name, so their order does not matter.
func ReadRaindrop(r io.Reader) (*outline.Outline, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &outline.Outline{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("raindrop: %w: %w", apperr.ErrParse, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"title", "url"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("raindrop: %w: missing %q column", apperr.ErrParse, required)
		}
	}

	out := &outline.Outline{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("raindrop: %w: %w", apperr.ErrParse, err)
		}
		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		fav, _ := strconv.ParseBool(strings.TrimSpace(field("favorite")))
		b := Bookmark{
			Title:    field("title"),
			Note:     field("note"),
			Excerpt:  field("excerpt"),
			URL:      field("url"),
			Tags:     splitTags(field("tags")),
			Created:  field("created"),
			Favorite: fav,
		}
		out.Push(b.Section())
	}
	return out, nil
}

func splitTags(s string) []string {
	var tags []string
	for t := range strings.SplitSeq(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Section renders the bookmark as an item: uri, added and tags attributes
// first, then the excerpt and note as body text.
func (b Bookmark) Section() outline.Section {
	title := strings.TrimSpace(strings.ReplaceAll(b.Title, "\n", " "))
	if b.Favorite && !strings.HasSuffix(title, " *") {
		title += " *"
	}

	text := strings.TrimSpace(strings.TrimSpace(b.Excerpt) + "\n" + strings.TrimSpace(b.Note))
	body, err := idm.Parse(text)
	if err != nil {
		body = &outline.Outline{}
		for _, line := range splitNonEmpty(text) {
			body.PushLine(line)
		}
	}

	body.Attrs.SetFields("tags", b.Tags)
	body.Attrs.Set("added", b.Created)
	body.Attrs.Set("uri", b.URL)
	body.Attrs.MoveToFront("tags")
	body.Attrs.MoveToFront("added")
	body.Attrs.MoveToFront("uri")
	return outline.Section{Head: title, Body: *body}
}
