package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/parser"
	"github.com/starford/idmkit/internal/tool"
)

// RemoveExisting drops input items whose uri already appears in a
// collection.
func RemoveExisting() *tool.Tool {
	return &tool.Tool{
		Name:      "remove-existing",
		Usage:     "Filter items that already exist in the collection out of the input",
		ArgsUsage: "COLLECTION",
		IO:        true,
		InputArg:  1,
		Run: func(_ context.Context, env *tool.Env) error {
			dir := env.Cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("remove-existing: %w: collection path is required", apperr.ErrInvalidInputSpec)
			}
			coll, err := env.ReadCollection(dir)
			if err != nil {
				return err
			}
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			known := KnownURIs(coll.Outline)
			removed := RemoveKnown(o, known)
			env.Logger.Info("removed items already in collection",
				slog.Int("removed", removed),
				slog.Int("known_uris", len(known)))
			return env.Pipe.Write(o)
		},
	}
}

// KnownURIs collects the normalized URIs of every section of o.
func KnownURIs(o *outline.Outline) map[string]bool {
	known := make(map[string]bool)
	for _, s := range o.Iter() {
		for _, uri := range s.Body.URIs() {
			known[parser.NormalizedURL(uri)] = true
		}
	}
	return known
}

// RemoveKnown deletes every section of o whose uri attribute is in known
// and returns how many were removed.
func RemoveKnown(o *outline.Outline, known map[string]bool) int {
	removed := 0
	for cur := range o.IterMut() {
		uri, ok := cur.Section().Body.Attrs.Get("uri")
		if ok && known[parser.NormalizedURL(uri)] {
			cur.Remove()
			removed++
		}
	}
	return removed
}
