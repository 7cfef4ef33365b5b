package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/index"
	"github.com/starford/idmkit/internal/mcpserver"
	"github.com/starford/idmkit/internal/outlineservice"
)

func (a *application) serviceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "index",
			Usage:     "Sync a collection into the search index",
			ArgsUsage: "[DIR]",
			Action:    a.runIndex,
		},
		{
			Name:      "search",
			Usage:     "Search indexed sections",
			ArgsUsage: "QUERY",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Usage:   "Maximum number of hits",
					Value:   20,
				},
			},
			Action: a.runSearch,
		},
		{
			Name:      "watch",
			Usage:     "Keep the search index in sync with a collection",
			ArgsUsage: "[DIR]",
			Action:    a.runWatch,
		},
		{
			Name:      "serve",
			Usage:     "Serve a collection over HTTP with live change events",
			ArgsUsage: "[DIR]",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if err := a.setup(cmd); err != nil {
					return err
				}
				return a.serve(ctx, a.collectionRoot(cmd))
			},
		},
		{
			Name:      "mcp",
			Usage:     "Serve a collection to MCP clients over stdio",
			ArgsUsage: "[DIR]",
			Action:    a.runMCP,
		},
	}
}

// collectionRoot is the DIR argument, or collection.root from the config.
func (a *application) collectionRoot(cmd *cli.Command) string {
	if dir := cmd.Args().First(); dir != "" {
		return dir
	}
	return a.config.Collection.Root
}

func (a *application) runIndex(_ context.Context, cmd *cli.Command) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	db, err := index.Open(a.config.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	root := a.collectionRoot(cmd)
	report, err := index.SyncDir(db, root, a.config.Collection.Ignore, a.logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%d created, %d updated, %d deleted\n",
		len(report.Created), len(report.Updated), len(report.Deleted))
	return err
}

func (a *application) runSearch(_ context.Context, cmd *cli.Command) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search: query is required")
	}
	db, err := index.Open(a.config.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	hits, err := db.Search(query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	for _, h := range hits {
		if _, err := fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", h.File, h.Path, h.Headline); err != nil {
			return err
		}
	}
	return nil
}

func (a *application) runWatch(ctx context.Context, cmd *cli.Command) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	db, err := index.Open(a.config.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	root := a.collectionRoot(cmd)
	if _, err := index.SyncDir(db, root, a.config.Collection.Ignore, a.logger); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return index.Watch(ctx, db, root, a.config.Collection.Ignore, a.logger, func(kind, path string) {
		a.logger.Info("collection changed", slog.String("kind", kind), slog.String("path", path))
	})
}

func (a *application) runMCP(ctx context.Context, cmd *cli.Command) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	db, err := index.Open(a.config.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := outlineservice.NewService(a.collectionRoot(cmd), a.config.Collection.Ignore, db, a.logger)
	if _, err := svc.Reindex(ctx); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(svc, a.version).ServeStdio()
}
