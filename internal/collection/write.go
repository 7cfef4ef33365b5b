package collection

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/storage"
)

// Report lists what Write changed.
type Report struct {
	Written []string
	Deleted []string
	// Kept holds recorded directories that were not removed because they
	// still contain paths the manifest never saw.
	Kept []string
}

type plan struct {
	files map[string][]byte
	dirs  map[string]bool
}

// build computes the files and directories o maps to without touching
// storage. It fails on invalid names and on siblings that map to the same
// file name.
func (p *plan) build(dir string, o *outline.Outline, style idm.Style) error {
	taken := make(map[string]string)
	claim := func(name, head string) error {
		if prev, ok := taken[name]; ok {
			return fmt.Errorf("collection: %w: %q and %q both map to %q",
				apperr.ErrAmbiguousHeadline, prev, head, join(dir, name))
		}
		taken[name] = head
		return nil
	}

	for key, value := range o.Attrs.All() {
		name, err := attrFile(key)
		if err != nil {
			return fmt.Errorf("collection: %s: %w", dir, err)
		}
		if err := claim(name, ":"+key); err != nil {
			return err
		}
		p.files[join(dir, name)] = []byte(value + "\n")
	}

	for i := range o.Sections {
		s := &o.Sections[i]
		// Blank lines at the top level of a file become empty sections.
		if strings.TrimSpace(s.Head) == "" {
			continue
		}
		name, isDir, err := target(s.Head)
		if err != nil {
			return fmt.Errorf("collection: %s: %w", dir, err)
		}
		if err := claim(name, s.Head); err != nil {
			return err
		}
		rel := join(dir, name)
		if isDir {
			p.dirs[rel] = true
			if err := p.build(rel, &s.Body, style); err != nil {
				return err
			}
			continue
		}
		p.files[rel] = []byte(idm.Serialize(&s.Body, style))
	}
	return nil
}

// Write stores o as a collection under the store root. Every file is built
// in memory first, so naming errors leave storage untouched. When m was read
// from the same root, recorded paths that no longer correspond to a section
// are deleted after all content is written. Paths m never recorded are never
// deleted.
func Write(store storage.Provider, o *outline.Outline, style idm.Style, m *Manifest, opts ...Option) (*Report, error) {
	op := newOptions(opts)
	p := &plan{files: make(map[string][]byte), dirs: make(map[string]bool)}
	if err := p.build("", o, style); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, d := range slices.Sorted(maps.Keys(p.dirs)) {
		if err := store.MkdirAll(d); err != nil {
			return report, fmt.Errorf("collection: %w", err)
		}
	}
	for _, f := range slices.Sorted(maps.Keys(p.files)) {
		if err := store.Write(f, p.files[f]); err != nil {
			return report, fmt.Errorf("collection: %w", err)
		}
		report.Written = append(report.Written, f)
	}

	if m == nil || m.Root() != store.Root() {
		return report, nil
	}
	if err := p.prune(store, m, report, op.logger); err != nil {
		return report, err
	}
	return report, nil
}

func (p *plan) prune(store storage.Provider, m *Manifest, report *Report, logger *slog.Logger) error {
	var dirs []string
	for _, e := range m.Entries() {
		if e.Kind == KindDir {
			if !p.dirs[e.Path] {
				dirs = append(dirs, e.Path)
			}
			continue
		}
		if _, ok := p.files[e.Path]; ok {
			continue
		}
		if err := store.Delete(e.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("collection: %w", err)
		}
		logger.Info("deleted", slog.String("path", e.Path), slog.String("kind", e.Kind.String()))
		report.Deleted = append(report.Deleted, e.Path)
	}

	// Deepest first so nested recorded directories empty their parents.
	slices.SortFunc(dirs, func(a, b string) int {
		if da, db := strings.Count(a, "/"), strings.Count(b, "/"); da != db {
			return db - da
		}
		return strings.Compare(b, a)
	})
	for _, d := range dirs {
		entries, err := store.ReadDir(d)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("collection: %w", err)
		}
		if len(entries) > 0 {
			logger.Warn("keeping directory with unrecorded files", slog.String("path", d))
			report.Kept = append(report.Kept, d)
			continue
		}
		if err := store.Delete(d); err != nil {
			return fmt.Errorf("collection: %w", err)
		}
		logger.Info("deleted", slog.String("path", d), slog.String("kind", KindDir.String()))
		report.Deleted = append(report.Deleted, d)
	}
	return nil
}
