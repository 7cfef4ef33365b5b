package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/starford/idmkit/internal"
)

var version = "dev"

func main() {
	cmd, err := internal.NewCommand(internal.WithVersion(version))
	if err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
