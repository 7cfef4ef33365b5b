package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/iopipe"
	"github.com/starford/idmkit/internal/tool"
)

// Cat parses the input and writes it back. Input that does not survive the
// round trip shows up as a diff against the original.
func Cat() *tool.Tool {
	return &tool.Tool{
		Name:  "cat",
		Usage: "Parse the input and echo it back",
		IO:    true,
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			return env.Pipe.Write(o)
		},
	}
}

// Glob flattens a collection into a single outline.
func Glob() *tool.Tool {
	return &tool.Tool{
		Name:      "glob",
		Usage:     "Flatten a collection into a single outline",
		ArgsUsage: "COLLECTION",
		IO:        true,
		InputArg:  0,
		Run: func(_ context.Context, env *tool.Env) error {
			if env.Pipe.Kind() != iopipe.SourceCollection {
				return fmt.Errorf("glob: %w: %s is not a collection directory", apperr.ErrInvalidInputSpec, env.Pipe.Source())
			}
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			return env.Pipe.Write(o)
		},
	}
}

// Expand writes any input out as a collection directory.
func Expand() *tool.Tool {
	return &tool.Tool{
		Name:  "expand",
		Usage: "Write the input into a collection directory given with -o",
		IO:    true,
		Run: func(_ context.Context, env *tool.Env) error {
			dir := env.Cmd.String("output")
			if dir == "" || dir == iopipe.Stdio {
				return fmt.Errorf("expand: %w: an output directory is required", apperr.ErrInvalidInputSpec)
			}
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return apperr.IO("mkdir", dir, err)
			}
			return env.Pipe.Write(o)
		},
	}
}
