package tools

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/parser"
	"github.com/starford/idmkit/internal/tool"
)

// FindDupes reports items that share a wiki title or a URI.
func FindDupes() *tool.Tool {
	return &tool.Tool{
		Name:      "find-dupes",
		Usage:     "Find duplicate items in a collection",
		ArgsUsage: "COLLECTION",
		IO:        true,
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			dupes := Duplicates(o)
			env.Logger.Info("duplicate search finished", slog.Int("groups", dupes.Len()))
			return env.Pipe.WriteText(idm.Serialize(dupes, env.Pipe.Style()))
		},
	}
}

type itemID struct {
	uri bool
	key string
}

func (a itemID) compare(b itemID) int {
	if a.uri != b.uri {
		if a.uri {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.key, b.key)
}

// Duplicates groups every section of o by identity and returns the groups
// with more than one member, titles first and then URIs, each sorted.
//
// A section's identity is its wiki title, or else its normalized uri
// attribute. The URIs of a sequence attribute also count as identities of
// the section that holds them.
func Duplicates(o *outline.Outline) *outline.Outline {
	groups := make(map[itemID][]outline.Section)
	for _, s := range o.Iter() {
		for _, id := range identities(s) {
			groups[id] = append(groups[id], s.Clone())
		}
	}

	keys := slices.SortedFunc(maps.Keys(groups), itemID.compare)
	out := &outline.Outline{}
	for _, id := range keys {
		members := groups[id]
		if len(members) < 2 {
			continue
		}
		out.Push(outline.Section{Head: id.key, Body: outline.Outline{Sections: members}})
	}
	return out
}

func identities(s *outline.Section) []itemID {
	var ids []itemID
	if title, ok := s.WikiTitle(); ok {
		ids = append(ids, itemID{key: title})
	} else if uri, ok := s.Body.Attrs.Get("uri"); ok {
		ids = append(ids, itemID{uri: true, key: parser.NormalizedURL(uri)})
	} else {
		return nil
	}
	for _, uri := range s.Body.Attrs.Fields("sequence") {
		id := itemID{uri: true, key: parser.NormalizedURL(uri)}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}
