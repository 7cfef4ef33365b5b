// Package weave runs scripts embedded in an outline and splices their output
// back into it.
//
// A script is a section headed ">name" whose body is the script text. When
// the section right after it is headed "==", the script's standard output
// replaces that section's body. Scripts run only when their text starts with
// a shebang line and their fingerprint differs from the one recorded in the
// script's ":input" attribute, or when forced. Every script of the outline
// is written into one temporary directory before any of them runs, so
// scripts can read each other's files by name.
package weave

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/idmkit/internal/checksum"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
)

// OutputMarker heads the section that receives a script's output.
const OutputMarker = "=="

// InputAttr records the fingerprint of the script text that last ran.
const InputAttr = "input"

var fileNameRe = regexp.MustCompile(`^[A-Za-z0-9_-][.A-Za-z0-9_/-]*$`)

// FileName returns the file name of a ">name" script headline. Names may
// contain subdirectories but not "..", absolute paths or whitespace. The
// name "-" stands for an anonymous script.
func FileName(head string) (string, bool) {
	name, ok := strings.CutPrefix(strings.TrimSpace(head), ">")
	if !ok {
		return "", false
	}
	if name == "-" {
		return name, true
	}
	if strings.Contains(name, "..") || !fileNameRe.MatchString(name) {
		return "", false
	}
	return name, true
}

// Options configures Run.
type Options struct {
	// Shell runs each script as `Shell -c path`. Defaults to "sh".
	Shell string
	// Timeout bounds each script. Zero means no limit.
	Timeout time.Duration
	// Force runs scripts whose fingerprint did not change.
	Force bool
	// Style is the indentation used to turn nested script lines into text.
	Style  idm.Style
	Logger *slog.Logger
}

// Result summarizes a Run.
type Result struct {
	Found   int
	Ran     []string
	Skipped []string
}

// Script is an embedded file found in an outline.
type Script struct {
	Name     string
	Text     string
	Hash     string
	Runnable bool
	Changed  bool

	parent outline.Path
	index  int
	file   string
}

// Run executes the scripts of o that are due and updates o in place.
func Run(ctx context.Context, o *outline.Outline, opts Options) (*Result, error) {
	if opts.Shell == "" {
		opts.Shell = "sh"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Wrap the input so top-level scripts have a parent section too.
	root := outline.New(outline.Section{Body: *o})
	scripts := Find(root, opts.Style)
	res := &Result{Found: len(scripts)}
	if len(scripts) == 0 {
		return res, nil
	}

	dir, err := os.MkdirTemp("", "idmkit-weave-")
	if err != nil {
		return nil, fmt.Errorf("weave: create work dir: %w", err)
	}
	defer os.RemoveAll(dir)
	opts.Logger.Info("writing weave fragments",
		slog.Int("count", len(scripts)),
		slog.String("dir", dir))

	for i := range scripts {
		if err := scripts[i].write(dir); err != nil {
			return nil, err
		}
	}

	for i := range scripts {
		sc := &scripts[i]
		parent := root.At(sc.parent)
		if sc.index+1 >= len(parent.Body.Sections) || parent.Body.Sections[sc.index+1].Head != OutputMarker {
			continue
		}
		if !sc.Runnable || !(sc.Changed || opts.Force) {
			res.Skipped = append(res.Skipped, sc.Name)
			continue
		}

		opts.Logger.Info("running script", slog.String("script", sc.Name))
		out, err := sc.run(ctx, dir, opts)
		if err != nil {
			return nil, err
		}
		body, err := idm.ParseSource(sc.Name+" output", out)
		if err != nil {
			return nil, fmt.Errorf("weave: script %s: %w", sc.Name, err)
		}
		parent.Body.Sections[sc.index+1].Body = *body
		script := &parent.Body.Sections[sc.index]
		script.Body.Attrs.Set(InputAttr, sc.Hash)
		script.Body.Attrs.MoveToFront(InputAttr)
		res.Ran = append(res.Ran, sc.Name)
	}

	*o = root.Sections[0].Body
	return res, nil
}

// Find lists the scripts of o in document order. The bodies of scripts are
// not searched.
func Find(o *outline.Outline, style idm.Style) []Script {
	var scripts []Script
	inScript := func(in bool, s *outline.Section) bool {
		if in {
			return true
		}
		_, ok := FileName(s.Head)
		return ok
	}
	for in, cur := range outline.ContextIterMut(o, false, inScript) {
		if in {
			cur.SkipChildren()
			continue
		}
		s := cur.Section()
		for j := range s.Body.Sections {
			sc, ok := parseScript(&s.Body.Sections[j], style)
			if !ok {
				continue
			}
			sc.parent, sc.index = cur.Path(), j
			scripts = append(scripts, sc)
		}
	}
	return scripts
}

func parseScript(s *outline.Section, style idm.Style) (Script, bool) {
	name, ok := FileName(s.Head)
	if !ok {
		return Script{}, false
	}
	text := idm.Serialize(&outline.Outline{Sections: s.Body.Sections}, style)
	if strings.TrimSpace(text) == "" {
		return Script{}, false
	}
	hash := checksum.Fingerprint(name, text)
	recorded := s.Body.Attrs.Fields(InputAttr)

	file := name
	if name == "-" {
		file = hash
	}
	return Script{
		Name:     name,
		Text:     text,
		Hash:     hash,
		Runnable: strings.HasPrefix(text, "#!"),
		Changed:  len(recorded) == 0 || recorded[0] != hash,
		file:     file,
	}, true
}

func (sc *Script) write(dir string) error {
	path := filepath.Join(dir, filepath.FromSlash(sc.file))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("weave: %w", err)
	}
	mode := os.FileMode(0o644)
	if sc.Runnable {
		mode = 0o700
	}
	if err := os.WriteFile(path, []byte(sc.Text), mode); err != nil {
		return fmt.Errorf("weave: write %s: %w", sc.Name, err)
	}
	sc.file = path
	return nil
}

func (sc *Script) run(ctx context.Context, dir string, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, opts.Shell, "-c", sc.file)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("weave: script %s timed out after %s", sc.Name, opts.Timeout)
		}
		return "", fmt.Errorf("weave: script %s failed: %w: %s", sc.Name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
