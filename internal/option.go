package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// WithConfig sets the application configuration. The --config flag is
// ignored when a configuration is given.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by --version and the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithStdin sets the stream tools read "-" from.
func WithStdin(r io.Reader) Option {
	return func(a *application) {
		a.stdin = r
	}
}

// WithStdout sets the stream data is written to.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithStderr sets the stream logs and usage errors are written to.
func WithStderr(w io.Writer) Option {
	return func(a *application) {
		a.stderr = w
	}
}
