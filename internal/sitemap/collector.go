// Package sitemap collects the ordered list of links that make up a site's sitemap.
//
// A pass enumerates the configured content categories through a content.Store,
// turns categories and entries into LinkEntry values with depth and lastmod
// metadata, drops ignored URLs and finally runs the registered listeners over
// the shared list. Nothing is cached between passes.
package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/sitemapd/internal/content"
	"github.com/starford/sitemapd/internal/logfields"
	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/routes"
)

// Listener inspects and mutates the collected links after filtering.
// Listeners run synchronously in registration order on the same list; an
// error aborts the pass.
type Listener func(ctx context.Context, links *LinkList) error

// Options is the static sitemap configuration.
type Options struct {
	SiteName          string
	Ignore            []string
	IgnoreContentType []string
	RemoveLink        []string
	IgnoreListing     bool
	ListingRoutes     map[string]string
	// Concurrency bounds parallel category reads; values below 2 read sequentially.
	Concurrency int
	Logger      *slog.Logger
}

// Collector produces sitemap link lists.
type Collector struct {
	store      content.Store
	resolver   routes.Resolver
	categories []models.ContentCategory
	opts       Options
	ignore     *Matcher
	removed    map[string]struct{}
	listeners  []Listener
	logger     *slog.Logger
}

// NewCollector wires a collector. It fails when an ignore pattern is not a
// valid regular expression.
func NewCollector(store content.Store, resolver routes.Resolver, categories []models.ContentCategory, opts Options, listeners ...Listener) (*Collector, error) {
	ignore, err := NewMatcher(opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}
	removed := make(map[string]struct{}, len(opts.RemoveLink))
	for _, p := range opts.RemoveLink {
		removed[NormalizePath(p)] = struct{}{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		store:      store,
		resolver:   resolver,
		categories: slices.Clone(categories),
		opts:       opts,
		ignore:     ignore,
		removed:    removed,
		listeners:  slices.Clone(listeners),
		logger:     logger,
	}, nil
}

// Listen registers listeners after any already registered.
func (c *Collector) Listen(l ...Listener) {
	c.listeners = append(c.listeners, l...)
}

// NormalizePath returns p with exactly one leading slash and no trailing slash.
func NormalizePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}

// Eligible returns the categories that take part in the sitemap, in declared order.
func (c *Collector) Eligible() []models.ContentCategory {
	var out []models.ContentCategory
	for _, cat := range c.categories {
		switch {
		case slices.Contains(c.opts.IgnoreContentType, cat.Slug):
		case cat.Viewless:
		case !cat.IsSearchable():
		default:
			out = append(out, cat)
		}
	}
	return out
}

// Collect runs one full pass and returns the final ordered link list.
func (c *Collector) Collect(ctx context.Context) ([]models.LinkEntry, error) {
	root, err := c.resolver.Resolve(routes.Homepage, nil)
	if err != nil {
		return nil, fmt.Errorf("sitemap: resolve site root: %w", err)
	}
	rootLink := models.LinkEntry{URL: root, Title: c.opts.SiteName, Depth: 0}

	eligible := c.Eligible()
	batches, err := c.fetch(ctx, eligible)
	if err != nil {
		return nil, err
	}

	var collected []models.LinkEntry
	for i, cat := range eligible {
		links, err := c.decorate(cat, batches[i])
		if err != nil {
			return nil, err
		}
		collected = append(collected, links...)
	}

	// The root link is exempt from ignore patterns so it always leads the list.
	links := NewLinkList(rootLink)
	links.Add(collected...)
	removed := links.Filter(func(l models.LinkEntry) bool {
		return l.Depth == 0 || !c.ignore.Match(l.URL)
	})
	if removed > 0 {
		c.logger.Debug("sitemap: ignored links", logfields.Links(removed))
	}

	for _, l := range c.listeners {
		if err := l(ctx, links); err != nil {
			return nil, fmt.Errorf("sitemap: listener: %w", err)
		}
	}
	return links.Items(), nil
}

// fetch queries every category. Results keep the order of cats no matter
// how many reads run in parallel.
func (c *Collector) fetch(ctx context.Context, cats []models.ContentCategory) ([][]models.ContentEntry, error) {
	out := make([][]models.ContentEntry, len(cats))
	g, gCtx := errgroup.WithContext(ctx)
	if c.opts.Concurrency > 1 {
		g.SetLimit(c.opts.Concurrency)
	} else {
		g.SetLimit(1)
	}
	for i, cat := range cats {
		g.Go(func() error {
			entries, err := c.store.Query(gCtx, cat.Slug, content.DefaultQuery())
			if err != nil {
				return fmt.Errorf("sitemap: query %q: %w", cat.Slug, err)
			}
			out[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// decorate builds the listing link (unless suppressed) and the item links of
// one category.
func (c *Collector) decorate(cat models.ContentCategory, entries []models.ContentEntry) ([]models.LinkEntry, error) {
	var out []models.LinkEntry
	baseDepth := 0
	if !c.opts.IgnoreListing {
		baseDepth = 1
		listing := models.LinkEntry{Title: cat.DisplayName(), Depth: 1, Category: cat.Slug}
		if _, hidden := c.removed[NormalizePath(cat.Slug)]; !hidden {
			u, err := c.listingURL(cat.Slug)
			if err != nil {
				return nil, err
			}
			listing.URL = u
		}
		out = append(out, listing)
	}

	for i := range entries {
		entry := entries[i]
		u := entry.Link
		if u == "" {
			var err error
			u, err = c.resolver.Resolve(routes.ContentLink, map[string]string{
				routes.ParamCategory: cat.Slug,
				routes.ParamSlug:     entry.Slug,
			})
			if err != nil {
				return nil, fmt.Errorf("sitemap: link for %s/%s: %w", cat.Slug, entry.Slug, err)
			}
		}
		lastmod, ok := FormatW3C(entry.DateChanged)
		if !ok && entry.DateChanged != "" {
			c.logger.Debug("sitemap: unparseable lastmod",
				logfields.Category(cat.Slug), logfields.Path(entry.Path))
		}
		out = append(out, models.LinkEntry{
			URL:          u,
			Title:        entry.Title,
			Depth:        baseDepth + 1,
			LastModified: lastmod,
			Image:        entry.Image,
			Category:     cat.Slug,
			Record:       &entry,
		})
	}
	return out, nil
}

// listingURL resolves a category's listing page through listing_routes or
// the default contentlisting route.
func (c *Collector) listingURL(slug string) (string, error) {
	route := routes.ContentListing
	if r, ok := c.opts.ListingRoutes[slug]; ok && r != "" {
		route = r
	}
	u, err := c.resolver.Resolve(route, map[string]string{routes.ParamCategory: slug})
	if err != nil {
		return "", fmt.Errorf("sitemap: listing for %q: %w", slug, err)
	}
	return u, nil
}
