// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/sitemapd/internal/api"
	"github.com/starford/sitemapd/internal/content"
	"github.com/starford/sitemapd/internal/export"
	"github.com/starford/sitemapd/internal/logfields"
	"github.com/starford/sitemapd/internal/mcpserver"
	"github.com/starford/sitemapd/internal/metrics"
	"github.com/starford/sitemapd/internal/sitemapservice"
	"github.com/starford/sitemapd/internal/sse"
)

func (a *application) init(opts []Option) error {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	if a.logOutput == nil {
		a.logOutput = os.Stdout
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	if err := app.init(opts); err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app.logOutput, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_driver", cfg.Content.Driver),
		slog.String("content_root", cfg.Content.Root),
		slog.String("log_level", cfg.App.LogLevel.String()))

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	rt, err := newRuntime(cfg, logger, recorder)
	if err != nil {
		return err
	}
	defer rt.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	handler := api.NewHandler(rt.service, rt.collector.Eligible)
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := rt.ready(req.Context()); err != nil {
			logger.Warn("readiness check failed", logfields.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Handle("/metrics", metrics.HTTPHandler(reg))
	if err := api.MountSitemaps(r, handler, rt.table); err != nil {
		return err
	}
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Content.Watch {
		g.Go(func() error {
			err := content.Watch(gCtx, rt.index, rt.files, logger, func(kind, path string) {
				recorder.IncContentEvent(kind)
				rt.service.Invalidate()
				broker.PublishContentChange(kind, path)
			})
			if err != nil {
				logger.Warn("watcher stopped", logfields.Error(err))
			}
			return nil
		})
	}

	if cfg.Export.Enabled() {
		sched, err := export.NewScheduler(gCtx, export.New(rt.service, cfg.Export.Path, logger))
		if err != nil {
			return err
		}
		if _, err := sched.Schedule(cfg.Export.Interval); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Warn("export scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
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

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logfields.Error(err))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", logfields.Error(err))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher and scheduler stop with the server.
var errShutdown = errors.New("shutdown")

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Generate runs a single collection pass and writes the sitemap in format
// ("xml" or "html") to out. When path is set the file is replaced atomically
// and out is ignored. Logs go to stderr.
func Generate(ctx context.Context, format, path string, out io.Writer, opts ...Option) error {
	app := &application{logOutput: os.Stderr}
	if err := app.init(opts); err != nil {
		return err
	}
	logger := newLogger(app.logOutput, app.config.App.LogLevel)

	rt, err := newRuntime(app.config, logger, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer rt.Close()

	var doc *sitemapservice.Document
	switch format {
	case sitemapservice.FormatXML:
		doc, err = rt.service.XML(ctx)
	case sitemapservice.FormatHTML:
		doc, err = rt.service.HTML(ctx)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if path != "" {
		if err := export.WriteFile(path, doc.Body); err != nil {
			return err
		}
		logger.Info("sitemap written", logfields.Path(path), logfields.Format(format), logfields.Links(doc.Links))
		return nil
	}
	_, err = out.Write(doc.Body)
	return err
}

// ServeMCP serves the MCP tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}
	if err := app.init(opts); err != nil {
		return err
	}
	logger := newLogger(app.logOutput, app.config.App.LogLevel)
	slog.SetDefault(logger)

	rt, err := newRuntime(app.config, logger, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting MCP server on stdio", slog.String("content_root", rt.files.Root()))
	return mcpserver.New(rt.service, rt.store, rt.files, rt.collector.Eligible).ServeStdio()
}
