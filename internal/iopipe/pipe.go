// Package iopipe resolves the input and output of a tool invocation.
//
// Input is standard input ("-"), a file or a collection directory. Output is
// standard output, a file, or a directory written through the collection
// transcoder. With in-place mode the output is the input path itself, and a
// collection written back in place deletes the files of removed sections.
package iopipe

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/collection"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/storage"
)

// Stdio is the marker for standard input or output.
const Stdio = "-"

// Spec is the input/output specification shared by every tool.
type Spec struct {
	Input   string
	Output  string
	InPlace bool
}

// SourceKind says where the input came from.
type SourceKind int

const (
	SourceStdin SourceKind = iota
	SourceFile
	SourceCollection
)

// Pipe is an opened Spec.
type Pipe struct {
	kind SourceKind
	path string
	text string
	coll *collection.Result
	dest string

	stdin     io.Reader
	stdout    io.Writer
	style     *idm.Style
	collOpts  []collection.Option
	logger    *slog.Logger
	lastWrite *collection.Report
}

// Option configures Open.
type Option func(*Pipe)

func WithStdin(r io.Reader) Option { return func(p *Pipe) { p.stdin = r } }

func WithStdout(w io.Writer) Option { return func(p *Pipe) { p.stdout = w } }

// WithStyle overrides the indentation inferred from the input.
func WithStyle(s idm.Style) Option { return func(p *Pipe) { p.style = &s } }

// WithCollectionOptions passes options to collection reads and writes.
func WithCollectionOptions(opts ...collection.Option) Option {
	return func(p *Pipe) { p.collOpts = append(p.collOpts, opts...) }
}

func WithLogger(l *slog.Logger) Option { return func(p *Pipe) { p.logger = l } }

// Open validates spec and reads the input.
func Open(spec Spec, opts ...Option) (*Pipe, error) {
	p := &Pipe{stdin: os.Stdin, stdout: os.Stdout, logger: slog.Default()}
	for _, fn := range opts {
		fn(p)
	}

	input := spec.Input
	if input == "" {
		input = Stdio
	}
	if spec.InPlace && input == Stdio {
		return nil, fmt.Errorf("iopipe: %w: cannot use -i with standard input", apperr.ErrInvalidInputSpec)
	}
	if spec.InPlace && spec.Output != "" {
		return nil, fmt.Errorf("iopipe: %w: cannot use -i with an output path", apperr.ErrInvalidInputSpec)
	}

	switch {
	case spec.InPlace:
		p.dest = input
	case spec.Output == "":
		p.dest = Stdio
	default:
		p.dest = spec.Output
	}

	if input == Stdio {
		data, err := io.ReadAll(p.stdin)
		if err != nil {
			return nil, apperr.IO("read", "stdin", err)
		}
		p.kind, p.text = SourceStdin, string(data)
		return p, nil
	}

	p.path = input
	info, err := os.Stat(input)
	switch {
	case err != nil:
		return nil, fmt.Errorf("iopipe: %w: %s: %w", apperr.ErrInvalidInputSpec, input, err)
	case info.IsDir():
		res, err := ReadCollection(input, p.collOpts...)
		if err != nil {
			return nil, err
		}
		p.kind, p.coll = SourceCollection, res
	case info.Mode().IsRegular():
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, apperr.IO("read", input, err)
		}
		p.kind, p.text = SourceFile, string(data)
	default:
		return nil, fmt.Errorf("iopipe: %w: %s is not a file or a directory", apperr.ErrInvalidInputSpec, input)
	}
	return p, nil
}

// ReadCollection reads the collection directory at dir.
func ReadCollection(dir string, opts ...collection.Option) (*collection.Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("iopipe: %w: %s: %w", apperr.ErrInvalidInputSpec, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("iopipe: %w: %s is not a directory", apperr.ErrInvalidInputSpec, dir)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return nil, err
	}
	return collection.Read(store, opts...)
}

func (p *Pipe) Kind() SourceKind { return p.kind }

// Source names the input for messages: the path, or "-".
func (p *Pipe) Source() string {
	if p.kind == SourceStdin {
		return Stdio
	}
	return p.path
}

// Collection returns the collection read from a directory input.
func (p *Pipe) Collection() (*collection.Result, bool) {
	return p.coll, p.coll != nil
}

// Style is the indentation used for output.
func (p *Pipe) Style() idm.Style {
	switch {
	case p.style != nil:
		return *p.style
	case p.coll != nil:
		return p.coll.Style
	default:
		return idm.InferStyle(p.text)
	}
}

// ReadText returns the input as IDM text. Collections are serialized.
func (p *Pipe) ReadText() (string, error) {
	if p.coll != nil {
		return idm.Serialize(p.coll.Outline, p.Style()), nil
	}
	return p.text, nil
}

// ReadOutline parses the input. Every call returns a fresh copy.
func (p *Pipe) ReadOutline() (*outline.Outline, error) {
	if p.coll != nil {
		o := p.coll.Outline.Clone()
		return &o, nil
	}
	source := p.path
	if p.kind == SourceStdin {
		source = "<stdin>"
	}
	return idm.ParseSource(source, p.text)
}

// Write stores o at the destination.
func (p *Pipe) Write(o *outline.Outline) error {
	if p.dest == Stdio {
		return p.print(idm.Serialize(o, p.Style()))
	}
	if info, err := os.Stat(p.dest); err == nil && info.IsDir() {
		store, err := storage.NewFS(p.dest)
		if err != nil {
			return err
		}
		var m *collection.Manifest
		if p.coll != nil {
			m = p.coll.Manifest
		}
		opts := append([]collection.Option{collection.WithLogger(p.logger)}, p.collOpts...)
		report, err := collection.Write(store, o, p.Style(), m, opts...)
		p.lastWrite = report
		return err
	}
	return p.writeFile(idm.Serialize(o, p.Style()))
}

// WriteText stores tool output that is not an outline. Directories are not
// a valid destination for it.
func (p *Pipe) WriteText(text string) error {
	if p.dest == Stdio {
		return p.print(text)
	}
	if info, err := os.Stat(p.dest); err == nil && info.IsDir() {
		return fmt.Errorf("iopipe: %w: cannot write text output to directory %s", apperr.ErrInvalidInputSpec, p.dest)
	}
	return p.writeFile(text)
}

// Report returns the result of the last collection write, if any.
func (p *Pipe) Report() *collection.Report { return p.lastWrite }

func (p *Pipe) print(text string) error {
	if _, err := io.WriteString(p.stdout, text); err != nil {
		return apperr.IO("write", "stdout", err)
	}
	return nil
}

func (p *Pipe) writeFile(text string) error {
	abs, err := filepath.Abs(p.dest)
	if err != nil {
		return fmt.Errorf("iopipe: resolve %s: %w", p.dest, err)
	}
	store, err := storage.NewFS(filepath.Dir(abs))
	if err != nil {
		return err
	}
	return store.Write(filepath.Base(abs), []byte(text))
}
