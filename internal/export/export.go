// Package export writes the XML sitemap to disk on a schedule.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/starford/sitemapd/internal/logfields"
	"github.com/starford/sitemapd/internal/sitemapservice"
)

// Source renders the XML sitemap.
type Source interface {
	XML(ctx context.Context) (*sitemapservice.Document, error)
}

// Exporter writes sitemap.xml to a fixed path.
type Exporter struct {
	src    Source
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	lastETag string
}

// New creates an exporter writing to path.
func New(src Source, path string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{src: src, path: path, logger: logger}
}

// Export renders the sitemap and replaces the file when its content changed.
// It reports whether the file was written.
func (e *Exporter) Export(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.src.XML(ctx)
	if err != nil {
		return false, fmt.Errorf("export: render: %w", err)
	}
	if doc.ETag == e.lastETag {
		if _, err := os.Stat(e.path); err == nil {
			return false, nil
		}
	}
	if err := WriteFile(e.path, doc.Body); err != nil {
		return false, err
	}
	e.lastETag = doc.ETag
	e.logger.Info("sitemap exported", logfields.Path(e.path), logfields.Links(doc.Links))
	return true, nil
}

// WriteFile atomically replaces path with data via a synced temp file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sitemapd-tmp-*")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("export: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("export: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("export: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("export: rename: %w", err)
	}
	success = true
	return nil
}

// Scheduler runs an Exporter periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
	exporter  *Exporter
	ctx       context.Context
}

// NewScheduler creates a scheduler for exp. ctx bounds every export run.
func NewScheduler(ctx context.Context, exp *Exporter) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, exporter: exp, ctx: ctx}, nil
}

// Schedule registers the periodic export. The first run happens immediately.
func (s *Scheduler) Schedule(interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
		gocron.WithName("sitemap-export"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create export job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.exporter.logger.Info("Starting export scheduler", logfields.Path(s.exporter.path))
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.exporter.logger.Info("Stopping export scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) run() {
	start := time.Now()
	if _, err := s.exporter.Export(s.ctx); err != nil {
		s.exporter.logger.Error("scheduled export failed", logfields.Error(err), logfields.Duration(time.Since(start)))
	}
}
