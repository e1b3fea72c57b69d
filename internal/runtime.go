package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/sitemapd/internal/content"
	"github.com/starford/sitemapd/internal/logfields"
	"github.com/starford/sitemapd/internal/metrics"
	"github.com/starford/sitemapd/internal/render"
	"github.com/starford/sitemapd/internal/routes"
	"github.com/starford/sitemapd/internal/sitemap"
	"github.com/starford/sitemapd/internal/sitemapservice"
)

// runtime holds the components shared by the serve, generate and mcp commands.
type runtime struct {
	cfg       *Config
	logger    *slog.Logger
	files     *content.FS
	index     *content.SQL // nil with the fs driver
	store     content.Store
	table     *routes.Table
	collector *sitemap.Collector
	service   *sitemapservice.Service
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRuntime(cfg *Config, logger *slog.Logger, recorder metrics.Recorder) (*runtime, error) {
	if err := os.MkdirAll(cfg.Content.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	slugs := cfg.CategorySlugs()
	files, err := content.NewFS(cfg.Content.Root, slugs)
	if err != nil {
		return nil, fmt.Errorf("init content store: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger, files: files, store: files}

	if cfg.Content.Indexed() {
		idx, err := content.OpenSQL(cfg.Content.Driver, cfg.Content.DSN, slugs)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		if err := content.Sync(idx, files, logger); err != nil {
			logger.Warn("initial sync failed", logfields.Error(err))
		}
		rt.index = idx
		rt.store = idx
	}

	rt.table, err = routes.NewTable(cfg.Routes, cfg.Site.BaseURL)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var listeners []sitemap.Listener
	if cfg.Sitemap.Dedupe {
		listeners = append(listeners, sitemap.Dedupe())
	}
	rt.collector, err = sitemap.NewCollector(rt.store, rt.table, cfg.ContentTypes,
		cfg.Sitemap.Options(cfg.Site.Name, logger), listeners...)
	if err != nil {
		rt.Close()
		return nil, err
	}

	xmlURL, err := rt.table.Absolute(routes.SitemapXML, nil)
	if err != nil {
		rt.Close()
		return nil, err
	}
	renderer, err := render.New(render.Options{
		SiteName:      cfg.Site.Name,
		Template:      cfg.Sitemap.Template,
		XMLTemplate:   cfg.Sitemap.XMLTemplate,
		IgnoreImages:  cfg.Sitemap.IgnoreImages,
		AbsoluteURL:   rt.table.AbsoluteURL,
		SitemapXMLURL: xmlURL,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.service = sitemapservice.NewService(rt.collector, renderer, sitemapservice.Options{
		CacheSize: cfg.Sitemap.CacheSize,
		CacheTTL:  cfg.Sitemap.CacheTTL,
		Recorder:  recorder,
		Logger:    logger,
	})
	return rt, nil
}

// ready reports whether the content source can be queried.
func (rt *runtime) ready(ctx context.Context) error {
	if rt.index != nil {
		return rt.index.Ping(ctx)
	}
	_, err := os.Stat(rt.files.Root())
	return err
}

func (rt *runtime) Close() {
	if rt.index != nil {
		if err := rt.index.Close(); err != nil {
			rt.logger.Warn("close index failed", logfields.Error(err))
		}
	}
}
