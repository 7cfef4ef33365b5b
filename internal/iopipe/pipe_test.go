package iopipe

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpen_StdinToStdout(t *testing.T) {
	var out bytes.Buffer
	p, err := Open(Spec{Input: "-"}, WithStdin(strings.NewReader("A\n\tB\n")), WithStdout(&out))
	require.NoError(t, err)
	assert.Equal(t, SourceStdin, p.Kind())
	assert.Equal(t, idm.Style{Tabs: true}, p.Style())

	o, err := p.ReadOutline()
	require.NoError(t, err)
	o.PushLine("C")
	require.NoError(t, p.Write(o))
	assert.Equal(t, "A\n\tB\nC\n", out.String())
}

func TestOpen_DefaultsToStdin(t *testing.T) {
	p, err := Open(Spec{}, WithStdin(strings.NewReader("")))
	require.NoError(t, err)
	assert.Equal(t, Stdio, p.Source())
}

func TestOpen_InvalidSpecs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.idm")
	writeFile(t, file, "x\n")

	cases := map[string]Spec{
		"in-place stdin":     {Input: "-", InPlace: true},
		"in-place and -o":    {Input: file, Output: "out.idm", InPlace: true},
		"missing input path": {Input: filepath.Join(dir, "nope")},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Open(spec, WithStdin(strings.NewReader("")))
			assert.True(t, errors.Is(err, apperr.ErrInvalidInputSpec), "%v", err)
		})
	}
}

func TestOpen_ParseErrorFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.idm")
	writeFile(t, file, "  indented\n")
	p, err := Open(Spec{Input: file})
	require.NoError(t, err)
	_, err = p.ReadOutline()
	assert.True(t, errors.Is(err, apperr.ErrParse))
}

func TestFileInPlace(t *testing.T) {
	file := filepath.Join(t.TempDir(), "list.idm")
	writeFile(t, file, "b\na\n")

	p, err := Open(Spec{Input: file, InPlace: true})
	require.NoError(t, err)
	o, err := p.ReadOutline()
	require.NoError(t, err)
	o.Sections[0], o.Sections[1] = o.Sections[1], o.Sections[0]
	require.NoError(t, p.Write(o))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestCollectionInPlaceDeletesRemoved(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.idm"), "a\n")
	writeFile(t, filepath.Join(dir, "b.idm"), "b\n")
	writeFile(t, filepath.Join(dir, "NOTES"), "untouched")

	p, err := Open(Spec{Input: dir, InPlace: true})
	require.NoError(t, err)
	assert.Equal(t, SourceCollection, p.Kind())

	o, err := p.ReadOutline()
	require.NoError(t, err)
	for cur := range o.IterMut() {
		if cur.Section().Head == "b" {
			cur.Remove()
		}
	}
	require.NoError(t, p.Write(o))
	assert.Equal(t, []string{"b.idm"}, p.Report().Deleted)

	_, err = os.Stat(filepath.Join(dir, "b.idm"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "NOTES"))
	assert.NoError(t, err)
}

func TestCollectionToOtherDirectoryKeepsFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.idm"), "a\n")
	writeFile(t, filepath.Join(dst, "old.idm"), "old\n")

	p, err := Open(Spec{Input: src, Output: dst})
	require.NoError(t, err)
	o, err := p.ReadOutline()
	require.NoError(t, err)
	require.NoError(t, p.Write(o))

	assert.Empty(t, p.Report().Deleted)
	_, err = os.Stat(filepath.Join(dst, "old.idm"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dst, "a.idm"))
	assert.NoError(t, err)
}

func TestCollectionReadText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.idm"), "x\n")
	writeFile(t, filepath.Join(dir, "sub", "b.idm"), "y\n")

	p, err := Open(Spec{Input: dir})
	require.NoError(t, err)
	text, err := p.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "a\n  x\nsub/\n  b\n    y\n", text)

	// ReadOutline hands out copies.
	o1, _ := p.ReadOutline()
	o1.Sections = nil
	o2, _ := p.ReadOutline()
	assert.Len(t, o2.Sections, 2)
}

func TestWriteText(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	p, err := Open(Spec{}, WithStdin(strings.NewReader("")), WithStdout(&out))
	require.NoError(t, err)
	require.NoError(t, p.WriteText("table\n"))
	assert.Equal(t, "table\n", out.String())

	p, err = Open(Spec{Output: dir}, WithStdin(strings.NewReader("")))
	require.NoError(t, err)
	assert.True(t, errors.Is(p.WriteText("x"), apperr.ErrInvalidInputSpec))

	target := filepath.Join(dir, "out.txt")
	p, err = Open(Spec{Output: target}, WithStdin(strings.NewReader("")))
	require.NoError(t, err)
	require.NoError(t, p.WriteText("x\n"))
	data, _ := os.ReadFile(target)
	assert.Equal(t, "x\n", string(data))
}

func TestWithStyleOverrides(t *testing.T) {
	var out bytes.Buffer
	p, err := Open(Spec{}, WithStdin(strings.NewReader("A\n  B\n")), WithStdout(&out), WithStyle(idm.Style{Tabs: true}))
	require.NoError(t, err)
	require.NoError(t, p.Write(outline.New(outline.NewSection("A", outline.New(outline.Line("B"))))))
	assert.Equal(t, "A\n\tB\n", out.String())
}
