package tools

import (
	"cmp"
	"context"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/tool"
)

// SortBy orders top-level items by an attribute.
func SortBy() *tool.Tool {
	return &tool.Tool{
		Name:  "sort-by",
		Usage: "Sort top-level items by an attribute value",
		IO:    true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "field",
				Value: "date",
				Usage: "Attribute to sort by",
			},
			&cli.BoolFlag{
				Name:  "favorites-first",
				Usage: "Put items marked with \" *\" before the rest",
			},
		},
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			SortSections(o, env.Cmd.String("field"), env.Cmd.Bool("favorites-first"))
			return env.Pipe.Write(o)
		},
	}
}

// SortSections stably sorts the top level of o by the value of field.
// Items without the field sort first. With favoritesFirst, important items
// come before all others.
func SortSections(o *outline.Outline, field string, favoritesFirst bool) {
	rank := func(s *outline.Section) int {
		if favoritesFirst && !s.IsImportant() {
			return 1
		}
		return 0
	}
	slices.SortStableFunc(o.Sections, func(a, b outline.Section) int {
		if c := cmp.Compare(rank(&a), rank(&b)); c != 0 {
			return c
		}
		av, _ := a.Body.Attrs.Get(field)
		bv, _ := b.Body.Attrs.Get(field)
		return cmp.Compare(av, bv)
	})
}

// Faves keeps the items marked important.
func Faves() *tool.Tool {
	return &tool.Tool{
		Name:  "faves",
		Usage: "Keep the items whose headline ends in \" *\"",
		IO:    true,
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			return env.Pipe.Write(Favorites(o))
		},
	}
}

// Favorites lists every important section of o. A favorite's body is kept
// whole and not searched further.
func Favorites(o *outline.Outline) *outline.Outline {
	out := &outline.Outline{}
	for cur := range o.IterMut() {
		if s := cur.Section(); s.IsImportant() {
			out.Push(*s)
			cur.SkipChildren()
		}
	}
	return out
}
