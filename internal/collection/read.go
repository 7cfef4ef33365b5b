package collection

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/storage"
)

// Option configures Read and Write.
type Option func(*options)

type options struct {
	ignore []string
	logger *slog.Logger
}

// WithIgnore skips entries whose relative path or name matches any of the
// doublestar patterns.
func WithIgnore(patterns ...string) Option {
	return func(o *options) { o.ignore = append(o.ignore, patterns...) }
}

// WithLogger sets the logger for skipped entries and deletions.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

func (o *options) ignored(rel, name string) bool {
	for _, p := range o.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Result is a collection read from storage.
type Result struct {
	Outline  *outline.Outline
	Manifest *Manifest
	// Style is the indentation of the first indented file, or
	// idm.DefaultStyle.
	Style idm.Style
}

// Read builds an outline from every represented file under the store root.
// Entries are visited in lexicographic order. Any malformed file aborts the
// whole read.
func Read(store storage.Provider, opts ...Option) (*Result, error) {
	r := &reader{
		store: store,
		opts:  newOptions(opts),
		m:     newManifest(store.Root()),
	}
	o := &outline.Outline{}
	if err := r.dir("", o); err != nil {
		return nil, err
	}
	style := idm.DefaultStyle
	if r.styled {
		style = r.style
	}
	return &Result{Outline: o, Manifest: r.m, Style: style}, nil
}

type reader struct {
	store  storage.Provider
	opts   *options
	m      *Manifest
	style  idm.Style
	styled bool
}

func (r *reader) dir(dir string, o *outline.Outline) error {
	entries, err := r.store.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("collection: read %q: %w", dir, err)
	}
	for _, e := range entries {
		rel := join(dir, e.Name)
		if strings.HasPrefix(e.Name, ".") {
			r.opts.logger.Debug("skipping dotfile", slog.String("path", rel))
			continue
		}
		if r.opts.ignored(rel, e.Name) {
			r.opts.logger.Debug("skipping ignored path", slog.String("path", rel))
			continue
		}
		if !ValidName(e.Name) {
			return fmt.Errorf("collection: %w: %q", apperr.ErrInvalidName, rel)
		}

		switch e.Kind {
		case storage.KindDir:
			if strings.HasPrefix(e.Name, ":") {
				return fmt.Errorf("collection: %w: attribute directory %q", apperr.ErrInvalidName, rel)
			}
			s := outline.Section{Head: e.Name + "/"}
			if err := r.dir(rel, &s.Body); err != nil {
				return err
			}
			o.Sections = append(o.Sections, s)
			r.m.record(Entry{Path: rel, Kind: KindDir, Head: s.Head})

		case storage.KindFile:
			if err := r.file(rel, e.Name, o); err != nil {
				return err
			}

		default:
			return fmt.Errorf("collection: %w: unhandled file type %q", apperr.ErrInvalidName, rel)
		}
	}
	return nil
}

func (r *reader) file(rel, name string, o *outline.Outline) error {
	if strings.HasPrefix(name, ":") && path.Ext(name) != "" && path.Ext(name) != idmExt {
		return fmt.Errorf("collection: %w: attribute file %q must end in %s", apperr.ErrInvalidName, rel, idmExt)
	}
	head, kind, ok := fileHead(name)
	if !ok {
		r.opts.logger.Debug("skipping file without extension", slog.String("path", rel))
		return nil
	}

	data, err := r.store.Read(rel)
	if err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	text, err := idm.Normalize(string(data))
	if err != nil {
		return &idm.ParseError{Source: rel, Line: 1, Msg: err.Error()}
	}

	if kind == KindAttr {
		if o.Attrs.Has(head) {
			return fmt.Errorf("collection: %w: duplicate attribute %q", apperr.ErrAmbiguousHeadline, rel)
		}
		o.Attrs.Set(head, strings.TrimSuffix(text, "\n"))
		r.m.record(Entry{Path: rel, Kind: kind, Head: head})
		return nil
	}

	body, err := idm.ParseSource(rel, text)
	if err != nil {
		return err
	}
	if !r.styled {
		r.style, r.styled = idm.DetectStyle(text)
	}
	o.Sections = append(o.Sections, outline.Section{Head: head, Body: *body})
	r.m.record(Entry{Path: rel, Kind: kind, Head: head})
	return nil
}
