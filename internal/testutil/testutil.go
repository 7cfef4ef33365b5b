// Package testutil provides shared test helpers for setting up collections,
// databases and tool invocations.
package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/index"
	"github.com/starford/idmkit/internal/tool"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "idmkit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCollection creates a temporary collection directory holding files.
// Keys are slash-separated paths relative to the root.
func TestCollection(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Settings are the tool settings used by RunTool.
var Settings = tool.Settings{
	WeaveShell:   "sh",
	WeaveTimeout: time.Minute,
}

// RunTool runs t as a subcommand with stdin as standard input and returns
// what it wrote to standard output.
func RunTool(t *testing.T, tl *tool.Tool, stdin string, args ...string) (string, error) {
	t.Helper()
	return RunToolWith(t, Settings, tl, stdin, args...)
}

// RunToolWith is RunTool with explicit settings.
func RunToolWith(t *testing.T, settings tool.Settings, tl *tool.Tool, stdin string, args ...string) (string, error) {
	t.Helper()
	reg := tool.NewRegistry()
	if err := reg.Register(tl); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	newEnv := func(context.Context, *cli.Command) (*tool.Env, error) {
		return &tool.Env{
			Settings: settings,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			Stdin:    strings.NewReader(stdin),
			Stdout:   &out,
		}, nil
	}
	root := &cli.Command{
		Name:           "idmkit",
		Commands:       reg.Commands(newEnv),
		Writer:         io.Discard,
		ErrWriter:      io.Discard,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	err := root.Run(context.Background(), append([]string{"idmkit", tl.Name}, args...))
	return out.String(), err
}
