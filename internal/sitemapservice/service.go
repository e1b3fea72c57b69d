// Package sitemapservice collects, renders and caches the sitemap documents.
package sitemapservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/starford/sitemapd/internal/checksum"
	"github.com/starford/sitemapd/internal/logfields"
	"github.com/starford/sitemapd/internal/metrics"
	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/render"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatXML  = "xml"
)

// Collector produces the link list for one pass.
type Collector interface {
	Collect(ctx context.Context) ([]models.LinkEntry, error)
}

// Document is a rendered sitemap.
type Document struct {
	Body        []byte
	ContentType string
	ETag        string
	Links       int
	GeneratedAt time.Time
}

// Options configures the service cache.
type Options struct {
	// CacheSize of zero disables caching.
	CacheSize int
	CacheTTL  time.Duration
	Recorder  metrics.Recorder
	Logger    *slog.Logger
}

// Service coordinates the collector, renderer and document cache.
type Service struct {
	collector Collector
	renderer  *render.Renderer
	cache     *expirable.LRU[string, *Document]
	group     singleflight.Group
	// gen is bumped by Invalidate. Builds started under an older generation
	// neither populate the cache nor absorb newer requests.
	gen      atomic.Uint64
	cacheMu  sync.Mutex
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new sitemap service.
func NewService(c Collector, r *render.Renderer, opts Options) *Service {
	s := &Service{
		collector: c,
		renderer:  r,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, *Document](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

// Links runs a collection pass and returns the resulting link list.
func (s *Service) Links(ctx context.Context) ([]models.LinkEntry, error) {
	start := s.now()
	links, err := s.collector.Collect(ctx)
	s.recorder.ObserveCollectDuration(time.Since(start))
	switch {
	case err == nil:
		s.recorder.IncCollectResult(metrics.ResultSuccess)
		s.recorder.SetLinkCount(len(links))
	case errors.Is(err, context.Canceled):
		s.recorder.IncCollectResult(metrics.ResultCanceled)
	default:
		s.recorder.IncCollectResult(metrics.ResultFailed)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("links collected", logfields.Links(len(links)), logfields.Duration(time.Since(start)))
	return links, nil
}

// HTML returns the rendered HTML sitemap.
func (s *Service) HTML(ctx context.Context) (*Document, error) {
	return s.document(ctx, FormatHTML)
}

// XML returns the rendered XML sitemap.
func (s *Service) XML(ctx context.Context) (*Document, error) {
	return s.document(ctx, FormatXML)
}

// Invalidate drops every cached document. Builds already running finish
// for their callers but are not cached.
func (s *Service) Invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen.Add(1)
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *Service) document(ctx context.Context, format string) (*Document, error) {
	gen := s.gen.Load()
	if s.cache != nil {
		if doc, ok := s.cache.Get(format); ok {
			s.recorder.IncCache(format, true)
			return doc, nil
		}
		s.recorder.IncCache(format, false)
	}

	// The shared build outlives any single caller; each caller only stops
	// waiting when its own context ends.
	buildCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(format+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		doc, err := s.build(buildCtx, format)
		if err != nil {
			return nil, err
		}
		s.store(gen, format, doc)
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Document), nil
	}
}

// store caches doc unless the content was invalidated after gen was read.
func (s *Service) store(gen uint64, format string, doc *Document) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen.Load() != gen {
		return
	}
	s.cache.Add(format, doc)
}

func (s *Service) build(ctx context.Context, format string) (*Document, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	doc := &Document{Links: len(links), GeneratedAt: s.now().UTC()}
	switch format {
	case FormatHTML:
		err = s.renderer.HTML(&buf, links)
		doc.ContentType = render.ContentTypeHTML
	case FormatXML:
		err = s.renderer.XML(&buf, links)
		doc.ContentType = render.ContentTypeXML
	default:
		return nil, fmt.Errorf("sitemapservice: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	doc.Body = buf.Bytes()
	doc.ETag = checksum.ETag(doc.Body)
	return doc, nil
}
