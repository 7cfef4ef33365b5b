package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/starford/idmkit/internal/apperr"
)

const tempPrefix = ".idmkit-tmp-"

// FS implements Provider on top of a billy filesystem.
type FS struct {
	root string
	fs   billy.Filesystem
}

// NewFS creates a provider rooted at the given directory on disk.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, apperr.IO("stat", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs, fs: osfs.New(abs)}, nil
}

var memCount atomic.Int64

// NewMemory creates an empty in-memory provider. Every call returns a
// distinct tree with its own root name.
func NewMemory() *FS {
	return &FS{
		root: fmt.Sprintf("memfs:%d", memCount.Add(1)),
		fs:   memfs.New(),
	}
}

// Root returns the absolute directory, or a unique name for memory trees.
func (f *FS) Root() string { return f.root }

// safePath cleans a relative path and rejects any result that escapes the
// root (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return ".", nil
	}
	rel = filepath.ToSlash(rel)
	if path.IsAbs(rel) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return cleaned, nil
}

func (f *FS) ReadDir(dir string) ([]Entry, error) {
	p, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	infos, err := f.fs.ReadDir(p)
	if err != nil {
		return nil, apperr.IO("readdir", dir, err)
	}
	out := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		out = append(out, entryOf(fi))
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (f *FS) Stat(name string) (Entry, error) {
	p, err := f.safePath(name)
	if err != nil {
		return Entry{}, err
	}
	fi, err := f.fs.Lstat(p)
	if err != nil {
		return Entry{}, apperr.IO("stat", name, err)
	}
	return entryOf(fi), nil
}

func (f *FS) Read(name string) ([]byte, error) {
	p, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := util.ReadFile(f.fs, p)
	if err != nil {
		return nil, apperr.IO("read", name, err)
	}
	return data, nil
}

// Write atomically writes content: temp file in the same directory, then
// rename over the target.
func (f *FS) Write(name string, content []byte) error {
	p, err := f.safePath(name)
	if err != nil {
		return err
	}
	dir := path.Dir(p)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return apperr.IO("mkdir", dir, err)
	}

	tmp, err := util.TempFile(f.fs, dir, tempPrefix)
	if err != nil {
		return apperr.IO("create temp", name, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = f.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return apperr.IO("write temp", name, err)
	}
	if s, ok := tmp.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return apperr.IO("fsync", name, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return apperr.IO("close temp", name, err)
	}
	if ch, ok := f.fs.(billy.Chmod); ok {
		_ = ch.Chmod(tmpName, 0o644)
	}
	if err := f.fs.Rename(tmpName, p); err != nil {
		return apperr.IO("rename", name, err)
	}
	success = true
	return nil
}

func (f *FS) Delete(name string) error {
	p, err := f.safePath(name)
	if err != nil {
		return err
	}
	if p == "." {
		return fmt.Errorf("storage: refusing to delete root")
	}
	if err := f.fs.Remove(p); err != nil {
		return apperr.IO("delete", name, err)
	}
	return nil
}

func (f *FS) MkdirAll(dir string) error {
	p, err := f.safePath(dir)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(p, 0o755); err != nil {
		return apperr.IO("mkdir", dir, err)
	}
	return nil
}
