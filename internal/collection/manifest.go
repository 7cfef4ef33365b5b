// Package collection converts between a directory tree of files and an
// outline.
//
// A subdirectory maps to a headline ending in "/", a "name.idm" file to the
// headline "name", any other "name.ext" file to "name.ext", and a ":key.idm"
// file to the attribute key of the enclosing outline. Files without an
// extension and dotfiles are not represented.
//
// Read returns a Manifest of every path it consumed. Passing that manifest
// back to Write when writing into the same tree lets Write delete the files
// whose sections were removed, and only those.
package collection

import (
	"maps"
	"slices"
)

// Kind classifies a manifest entry.
type Kind int

const (
	KindDir Kind = iota
	KindIDM
	KindFile
	KindAttr
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindIDM:
		return "idm"
	case KindFile:
		return "file"
	case KindAttr:
		return "attr"
	}
	return "unknown"
}

// Entry is one path consumed by Read.
type Entry struct {
	Path string
	Kind Kind
	// Head is the headline the path became, or the attribute key for
	// KindAttr.
	Head string
}

// Manifest records the paths a collection outline was built from.
type Manifest struct {
	root    string
	entries map[string]Entry
}

func newManifest(root string) *Manifest {
	return &Manifest{root: root, entries: make(map[string]Entry)}
}

// Root is the storage root the manifest was read from.
func (m *Manifest) Root() string { return m.root }

func (m *Manifest) Len() int { return len(m.entries) }

func (m *Manifest) Has(path string) bool {
	_, ok := m.entries[path]
	return ok
}

func (m *Manifest) Get(path string) (Entry, bool) {
	e, ok := m.entries[path]
	return e, ok
}

// Entries returns all entries sorted by path.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, p := range slices.Sorted(maps.Keys(m.entries)) {
		out = append(out, m.entries[p])
	}
	return out
}

func (m *Manifest) record(e Entry) {
	m.entries[e.Path] = e
}
