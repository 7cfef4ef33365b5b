package tools

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/tool"
	"github.com/starford/idmkit/internal/weave"
)

// Weave runs embedded scripts and splices their output into the input.
func Weave() *tool.Tool {
	return &tool.Tool{
		Name:  "weave",
		Usage: "Run embedded >file scripts and insert their output under the following == section",
		IO:    true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Run scripts even when they have not changed",
			},
		},
		Run: func(ctx context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			res, err := weave.Run(ctx, o, weave.Options{
				Shell:   env.Settings.WeaveShell,
				Timeout: env.Settings.WeaveTimeout,
				Force:   env.Cmd.Bool("force"),
				Style:   env.Pipe.Style(),
				Logger:  env.Logger,
			})
			if err != nil {
				return err
			}
			env.Logger.Info("weave finished",
				slog.Int("found", res.Found),
				slog.Int("ran", len(res.Ran)),
				slog.Int("skipped", len(res.Skipped)))
			return env.Pipe.Write(o)
		},
	}
}
