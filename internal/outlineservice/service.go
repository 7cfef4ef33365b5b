// Package outlineservice answers read-only queries about a collection for
// the HTTP API and the MCP server.
package outlineservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/checksum"
	"github.com/starford/idmkit/internal/collection"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/index"
	"github.com/starford/idmkit/internal/models"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/parser"
	"github.com/starford/idmkit/internal/storage"
)

// OutlineDetail is the IDM text of a collection subtree.
type OutlineDetail struct {
	Path     string `json:"path"`
	Text     string `json:"text"`
	Checksum string `json:"checksum"`
	Sections int    `json:"sections"`
}

// Service coordinates collection reads and index operations.
type Service struct {
	root   string
	ignore []string
	db     *index.DB
	logger *slog.Logger
}

// NewService creates a new service over the collection at root.
func NewService(root string, ignore []string, db *index.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{root: root, ignore: ignore, db: db, logger: logger}
}

// Root returns the collection directory.
func (s *Service) Root() string { return s.root }

// Outline reads the collection and returns the subtree at path. Path
// segments are separated by "/" and match a headline either exactly or as a
// directory ("seg/"). An empty path returns the whole collection.
func (s *Service) Outline(_ context.Context, path string) (*OutlineDetail, error) {
	res, err := s.read()
	if err != nil {
		return nil, err
	}
	sub, err := Resolve(res.Outline, path)
	if err != nil {
		return nil, err
	}
	text := idm.Serialize(sub, res.Style)
	n := 0
	for range sub.Iter() {
		n++
	}
	return &OutlineDetail{
		Path:     strings.Trim(path, "/"),
		Text:     text,
		Checksum: checksum.Sum([]byte(text)),
		Sections: n,
	}, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchHit, error) {
	hits, err := s.db.Search(query, limit)
	return nonNilSlice(hits), err
}

// Tags returns tag usage counts from the index.
func (s *Service) Tags(_ context.Context) ([]models.TagCount, error) {
	tags, err := s.db.Tags()
	return nonNilSlice(tags), err
}

// Files lists the indexed collection files.
func (s *Service) Files(_ context.Context) ([]models.FileInfo, error) {
	files, err := s.db.Files()
	return nonNilSlice(files), err
}

// FindURI returns the sections whose uri attribute identifies the same
// resource as uri.
func (s *Service) FindURI(_ context.Context, uri string) ([]models.Section, error) {
	out, err := s.db.SectionsByURI(parser.NormalizedURL(uri))
	return nonNilSlice(out), err
}

// Reindex re-reads the collection and syncs the index with it.
func (s *Service) Reindex(_ context.Context) (*index.SyncReport, error) {
	return index.SyncDir(s.db, s.root, s.ignore, s.logger)
}

func (s *Service) read() (*collection.Result, error) {
	store, err := storage.NewFS(s.root)
	if err != nil {
		return nil, err
	}
	return collection.Read(store, collection.WithIgnore(s.ignore...), collection.WithLogger(s.logger))
}

// Resolve finds the subtree of o addressed by a "/"-separated headline path.
// The result is the addressed section alone, as a one-section outline.
func Resolve(o *outline.Outline, path string) (*outline.Outline, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return o, nil
	}
	cur := o
	var found *outline.Section
	for _, seg := range strings.Split(path, "/") {
		found = nil
		for i := range cur.Sections {
			head := cur.Sections[i].Head
			if head == seg || head == seg+"/" {
				found = &cur.Sections[i]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("outline %q: %w", path, apperr.ErrNotFound)
		}
		cur = &found.Body
	}
	return outline.New(*found), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
