// Package internal wires configuration, logging and every idmkit command
// into one command line.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/starford/idmkit/internal/api"
	"github.com/starford/idmkit/internal/index"
	"github.com/starford/idmkit/internal/outlineservice"
	"github.com/starford/idmkit/internal/sse"
	"github.com/starford/idmkit/internal/tool"
	"github.com/starford/idmkit/internal/tools"
	pkgconfig "github.com/starford/idmkit/pkg/config"
)

const defaultConfigFile = "idmkit.yaml"

// NewCommand builds the idmkit command line: every registered tool plus the
// index and serving commands.
func NewCommand(opts ...Option) (*cli.Command, error) {
	app := &application{
		version: "dev",
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}

	reg := tool.NewRegistry()
	if err := tools.Register(reg); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	commands := append(reg.Commands(app.toolEnv), app.serviceCommands()...)

	return &cli.Command{
		Name:      "idmkit",
		Usage:     "Transform IDM outlines and outline collections",
		Version:   app.version,
		Writer:    app.stdout,
		ErrWriter: app.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("IDMKIT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override app.log_level (debug, info, warn, error)",
			},
		},
		Commands: commands,
	}, nil
}

// setup loads the configuration and builds the logger. Logs always go to
// stderr since stdout carries data.
func (a *application) setup(cmd *cli.Command) error {
	if a.config == nil {
		cfg := NewDefaultConfig()
		path := cmd.String("config")
		if cmd.IsSet("config") {
			if err := pkgconfig.Load(path, cfg); err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}
		} else if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		a.config = cfg
	}

	level := a.config.App.LogLevel
	if v := cmd.String("log-level"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", v, err)
		}
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(a.stderr, handlerOpts)
	if a.config.App.LogFormat == LogFormatJSON {
		handler = slog.NewJSONHandler(a.stderr, handlerOpts)
	}
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)
	return nil
}

func (a *application) toolEnv(_ context.Context, cmd *cli.Command) (*tool.Env, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}
	return &tool.Env{
		Settings: a.config.Settings(),
		Logger:   a.logger,
		Stdin:    a.stdin,
		Stdout:   a.stdout,
	}, nil
}

// serve runs the HTTP API, the collection watcher and the signal handler
// until one of them fails or a shutdown signal arrives.
func (a *application) serve(ctx context.Context, root string) error {
	cfg := a.config
	logger := a.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("collection", root),
		slog.String("index_path", cfg.Index.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := outlineservice.NewService(root, cfg.Collection.Ignore, db, logger)

	// Run initial sync.
	if _, err := svc.Reindex(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the collection and announce changes over SSE.
	g.Go(func() error {
		return index.Watch(gCtx, db, root, cfg.Collection.Ignore, logger, func(kind, path string) {
			broker.PublishFileEvent(kind, path)
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		// SSE streams only end when their clients go away or the broker closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
