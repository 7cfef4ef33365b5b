package tools

import (
	"context"

	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/tool"
)

// Columnize turns rows of attribute-bearing items into one column per
// attribute.
func Columnize() *tool.Tool {
	return &tool.Tool{
		Name:  "columnize",
		Usage: "Convert a list of rows into a list of columns from those rows",
		IO:    true,
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			return env.Pipe.Write(ColumnizeOutline(o))
		},
	}
}

// ColumnizeOutline builds one ":field" section per attribute key seen on the
// top-level items, in first-seen order. Each column lists every item that
// has attributes, with the value parsed as an outline or "-" when the item
// lacks the field.
func ColumnizeOutline(o *outline.Outline) *outline.Outline {
	var fields []string
	seen := make(map[string]bool)
	for i := range o.Sections {
		for _, k := range o.Sections[i].Body.Attrs.Keys() {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}

	out := &outline.Outline{}
	for _, field := range fields {
		col := outline.Section{Head: ":" + field}
		for i := range o.Sections {
			item := &o.Sections[i]
			if item.Body.Attrs.Len() == 0 {
				continue
			}
			value, ok := item.Body.Attrs.Get(field)
			if !ok {
				value = "-"
			}
			col.Body.Push(outline.Section{Head: item.Head, Body: *valueOutline(value)})
		}
		out.Push(col)
	}
	return out
}

// valueOutline reads an attribute value as an outline, falling back to one
// line per value line when it does not parse.
func valueOutline(value string) *outline.Outline {
	if o, err := idm.Parse(value); err == nil {
		return o
	}
	o := &outline.Outline{}
	for _, line := range splitNonEmpty(value) {
		o.PushLine(line)
	}
	return o
}
