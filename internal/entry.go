// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/api"
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/mcpserver"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/site"
	"github.com/starford/quire/internal/sse"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/watch"
)

const (
	reloadThrottle  = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.dirs.Input == "" || app.dirs.Output == "" {
		return nil, fmt.Errorf("input and output directories are required")
	}
	return app, nil
}

func (a *application) logger(w io.Writer, json bool) (*slog.Logger, error) {
	level, err := a.config.App.Level()
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

// openIndex opens the search index. A failure disables the index instead
// of the build.
func (a *application) openIndex(logger *slog.Logger) *index.DB {
	path := a.config.Index.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("index: disabled", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	db, err := index.Open(path)
	if err != nil {
		logger.Warn("index: disabled", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return db
}

// existingIndex opens the search index only if its file is already there.
func (a *application) existingIndex(logger *slog.Logger) *index.DB {
	path := a.config.Index.Path
	if _, err := os.Stat(path); err != nil {
		logger.Debug("index: not synced", slog.String("path", path), slog.String("reason", err.Error()))
		return nil
	}
	return a.openIndex(logger)
}

// contentDir checks that the content directory exists without creating it.
func (a *application) contentDir() error {
	info, err := os.Stat(a.dirs.Input)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("content dir %s: %w", a.dirs.Input, apperr.ErrInputMissing)
	}
	if err != nil {
		return fmt.Errorf("content dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content dir %s: not a directory: %w", a.dirs.Input, apperr.ErrInputMissing)
	}
	return nil
}

func (a *application) siteOptions(logger *slog.Logger, rec metrics.Recorder, db *index.DB) site.Options {
	opts := site.Options{
		Dirs:      a.dirs,
		Site:      a.config.Main,
		Fallback:  true,
		Converter: markdown.New(),
		Logger:    logger,
		Recorder:  rec,
	}
	if db != nil {
		opts.Index = db
	}
	return opts
}

// Build runs a single build and returns its result. The search index is
// updated when a previous serve or mcp session created it.
func Build(ctx context.Context, opts ...Option) (*site.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger, err := app.logger(os.Stderr, false)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	db := app.existingIndex(logger)
	if db != nil {
		defer db.Close()
	}

	return site.Build(ctx, app.siteOptions(logger, metrics.NoopRecorder{}, db))
}

// Run starts the development server: the watch loop rebuilds the site and
// the HTTP server serves the output directory until ctx is cancelled or a
// signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger, err := app.logger(os.Stdout, true)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.Address()),
		slog.String("input_dir", app.dirs.Input),
		slog.String("output_dir", app.dirs.Output),
		slog.String("watch_mode", cfg.App.WatchMode),
		slog.String("index_path", cfg.Index.Path))

	db := app.openIndex(logger)
	if db != nil {
		defer db.Close()
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	broker := sse.NewBroker(reloadThrottle)
	defer broker.Close()

	status := &watch.Status{}

	buildOpts := app.siteOptions(logger, recorder, db)
	buildOpts.Globals = map[string]any{"livereload": true}

	// The watch loop runs builds serially, so last needs no locking.
	var last *site.Result
	watcher := watch.New(
		func(ctx context.Context) error {
			var err error
			last, err = site.Build(ctx, buildOpts)
			return err
		},
		[]string{app.dirs.Input, app.dirs.Templates, app.dirs.Static},
		watch.WithInterval(cfg.App.PollInterval),
		watch.WithLogger(logger),
		watch.WithOnBuild(func(err error) {
			status.Record(err)
			rep := sse.BuildReport{Err: err}
			if err == nil && last != nil {
				rep.Articles = len(last.Articles)
				rep.Pages = len(last.Pages)
				rep.Tags = len(last.Tags)
				rep.Duration = last.Duration
			}
			broker.PublishBuild(rep)
		}),
	)

	deps := api.Deps{
		Output:  app.dirs.Output,
		Status:  status,
		Events:  broker,
		Metrics: metrics.HTTPHandler(reg),
	}
	if db != nil {
		deps.Index = db
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", api.NewRouter(deps))

	httpServer := &http.Server{
		Addr:              cfg.App.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(gCtx, cfg.App.WatchMode)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.Address()))
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the HTTP server has stopped so the
// watch loop exits as well.
var errShutdown = errors.New("shutdown")

// ServeMCP runs the MCP server on stdin and stdout. Logs go to stderr.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger, err := app.logger(os.Stderr, false)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := app.contentDir(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}

	db := app.openIndex(logger)
	if db == nil {
		return fmt.Errorf("mcp: search index %s is unavailable", app.config.Index.Path)
	}
	defer db.Close()

	content, err := storage.NewFS(app.dirs.Input)
	if err != nil {
		return fmt.Errorf("mcp: content dir: %w", err)
	}

	buildOpts := app.siteOptions(logger, metrics.NoopRecorder{}, db)
	srv := mcpserver.New(db, func(ctx context.Context) (*site.Result, error) {
		return site.Build(ctx, buildOpts)
	}, content, app.version)

	logger.Info("mcp: serving on stdio", slog.String("input_dir", app.dirs.Input))
	return srv.Serve(ctx, os.Stdin, os.Stdout, logger)
}
