// Package storage defines the file-system abstraction collections are read
// from and written to.
package storage

import (
	"io/fs"
	"time"
)

// Kind classifies a directory entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	// KindOther covers symlinks, devices and anything else that is neither
	// a regular file nor a directory.
	KindOther
)

// Entry describes one name in a directory listing.
type Entry struct {
	Name    string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

func entryOf(fi fs.FileInfo) Entry {
	e := Entry{Name: fi.Name(), Size: fi.Size(), ModTime: fi.ModTime()}
	switch {
	case fi.Mode().IsRegular():
		e.Kind = KindFile
	case fi.IsDir():
		e.Kind = KindDir
	default:
		e.Kind = KindOther
	}
	return e
}

// Provider is the interface for collection file operations. All paths are
// slash-separated and relative to the provider root; "" is the root itself.
type Provider interface {
	// Root identifies the tree. Two providers with the same root operate on
	// the same files.
	Root() string
	// ReadDir lists dir sorted by name. Symlinks are reported as KindOther.
	ReadDir(dir string) ([]Entry, error)
	// Stat describes path without following a final symlink.
	Stat(path string) (Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, creating parent dirs.
	Write(path string, content []byte) error
	// Delete removes a file or an empty directory.
	Delete(path string) error
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}
