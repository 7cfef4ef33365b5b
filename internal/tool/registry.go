// Package tool defines the uniform shape of idmkit subcommands and the
// registry the command line is built from.
package tool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/collection"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/iopipe"
)

// Tool is one subcommand.
//
// IO tools get the standard input/output flags and an opened Pipe in their
// Env. The input path is the positional argument at InputArg, or the
// --file flag when InputArg is negative or the flag is set.
type Tool struct {
	Name      string
	Usage     string
	ArgsUsage string
	Flags     []cli.Flag
	IO        bool
	InputArg  int
	Run       func(ctx context.Context, env *Env) error
}

// Settings are the configuration values tools read.
type Settings struct {
	Ignore       []string
	Indent       string
	WeaveShell   string
	WeaveTimeout time.Duration
}

// Env is what a running tool sees.
type Env struct {
	Cmd      *cli.Command
	Settings Settings
	Logger   *slog.Logger
	Stdin    io.Reader
	Stdout   io.Writer
	Pipe     *iopipe.Pipe
}

// CollectionOptions returns the read/write options derived from Settings.
func (e *Env) CollectionOptions() []collection.Option {
	opts := []collection.Option{collection.WithIgnore(e.Settings.Ignore...)}
	if e.Logger != nil {
		opts = append(opts, collection.WithLogger(e.Logger))
	}
	return opts
}

// ReadCollection reads a collection directory other than the tool input.
func (e *Env) ReadCollection(dir string) (*collection.Result, error) {
	return iopipe.ReadCollection(dir, e.CollectionOptions()...)
}

// Open opens spec with the environment's streams and settings.
func (e *Env) Open(spec iopipe.Spec) (*iopipe.Pipe, error) {
	opts := []iopipe.Option{iopipe.WithCollectionOptions(e.CollectionOptions()...)}
	if e.Stdin != nil {
		opts = append(opts, iopipe.WithStdin(e.Stdin))
	}
	if e.Stdout != nil {
		opts = append(opts, iopipe.WithStdout(e.Stdout))
	}
	if e.Logger != nil {
		opts = append(opts, iopipe.WithLogger(e.Logger))
	}
	style, ok, err := idm.ParseStyle(e.Settings.Indent)
	if err != nil {
		return nil, fmt.Errorf("tool: indent setting: %w", err)
	}
	if ok {
		opts = append(opts, iopipe.WithStyle(style))
	}
	return iopipe.Open(spec, opts...)
}

// Registry holds tools by name.
type Registry struct {
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t.Run == nil {
		return fmt.Errorf("tool %q has no run function", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// MustRegister registers every tool and panics on the first error.
func (r *Registry) MustRegister(tools ...*Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (*Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", name, apperr.ErrNotFound)
	}
	return t, nil
}

// List returns the tools sorted by name.
func (r *Registry) List() []*Tool {
	tools := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	slices.SortFunc(tools, func(a, b *Tool) int { return strings.Compare(a.Name, b.Name) })
	return tools
}

// EnvFunc builds the base environment for a command invocation.
type EnvFunc func(ctx context.Context, cmd *cli.Command) (*Env, error)

// Commands turns every registered tool into a cli command.
func (r *Registry) Commands(newEnv EnvFunc) []*cli.Command {
	var cmds []*cli.Command
	for _, t := range r.List() {
		cmds = append(cmds, t.command(newEnv))
	}
	return cmds
}

func (t *Tool) command(newEnv EnvFunc) *cli.Command {
	flags := slices.Clone(t.Flags)
	argsUsage := t.ArgsUsage
	if t.IO {
		flags = append(flags, ioFlags()...)
		if t.InputArg >= 0 {
			argsUsage = strings.TrimSpace(argsUsage + " [INPUT]")
		}
	}
	return &cli.Command{
		Name:      t.Name,
		Usage:     t.Usage,
		ArgsUsage: argsUsage,
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnv(ctx, cmd)
			if err != nil {
				return err
			}
			env.Cmd = cmd
			if t.IO {
				p, err := env.Open(t.spec(cmd))
				if err != nil {
					return err
				}
				env.Pipe = p
			}
			return t.Run(ctx, env)
		},
	}
}

func (t *Tool) spec(cmd *cli.Command) iopipe.Spec {
	input := cmd.String("file")
	if input == "" && t.InputArg >= 0 {
		input = cmd.Args().Get(t.InputArg)
	}
	return iopipe.Spec{
		Input:   input,
		Output:  cmd.String("output"),
		InPlace: cmd.Bool("in-place"),
	}
}

func ioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Input file or collection directory, - for stdin",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file or directory, defaults to stdout",
		},
		&cli.BoolFlag{
			Name:    "in-place",
			Aliases: []string{"i"},
			Usage:   "Rewrite the input file or collection",
		},
	}
}
