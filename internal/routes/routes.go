// Package routes resolves named routes into URLs.
package routes

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/sitemapd/internal/apperr"
)

// Built-in route names.
const (
	Homepage       = "homepage"
	ContentListing = "contentlisting"
	ContentLink    = "contentlink"
	Sitemap        = "sitemap"
	SitemapXML     = "sitemapXml"
)

// Route parameters understood by the built-in patterns.
const (
	ParamCategory = "contenttypeslug"
	ParamSlug     = "slug"
)

var paramRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolver turns a route name and parameters into a URL.
type Resolver interface {
	Resolve(name string, params map[string]string) (string, error)
}

// Table is a Resolver over a fixed set of path patterns such as "/{contenttypeslug}".
type Table struct {
	patterns map[string]string
	baseURL  *url.URL
}

// DefaultPatterns returns the built-in route patterns.
func DefaultPatterns() map[string]string {
	return map[string]string{
		Homepage:       "/",
		ContentListing: "/{contenttypeslug}",
		ContentLink:    "/{contenttypeslug}/{slug}",
		Sitemap:        "/sitemap",
		SitemapXML:     "/sitemap.xml",
	}
}

// NewTable builds a route table from the defaults overlaid with overrides.
// baseURL may be empty; when set, Absolute prefixes it.
func NewTable(overrides map[string]string, baseURL string) (*Table, error) {
	patterns := DefaultPatterns()
	for name, p := range overrides {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("routes: pattern for %q must start with /: %q", name, p)
		}
		patterns[name] = p
	}
	t := &Table{patterns: patterns}
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("routes: parse base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("routes: base url must be absolute: %q", baseURL)
		}
		t.baseURL = u
	}
	return t, nil
}

// Has reports whether a route named name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.patterns[name]
	return ok
}

// Names returns the sorted route names.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.patterns))
	for n := range t.patterns {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolve substitutes params into the named pattern and returns a
// root-relative path. Parameter values are path-escaped.
func (t *Table) Resolve(name string, params map[string]string) (string, error) {
	pattern, ok := t.patterns[name]
	if !ok {
		return "", fmt.Errorf("routes: %q: %w", name, apperr.ErrUnknownRoute)
	}
	var missing string
	out := paramRe.ReplaceAllStringFunc(pattern, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := params[key]
		if !ok || v == "" {
			if missing == "" {
				missing = key
			}
			return m
		}
		return url.PathEscape(v)
	})
	if missing != "" {
		return "", fmt.Errorf("routes: %q needs %q: %w", name, missing, apperr.ErrMissingParameter)
	}
	return out, nil
}

// Absolute resolves name and prefixes the configured base URL. Without a
// base URL it behaves like Resolve.
func (t *Table) Absolute(name string, params map[string]string) (string, error) {
	p, err := t.Resolve(name, params)
	if err != nil {
		return "", err
	}
	return t.AbsoluteURL(p), nil
}

// AbsoluteURL prefixes a root-relative link with the base URL. Links that
// are already absolute, empty, or resolved without a base URL pass through.
func (t *Table) AbsoluteURL(link string) string {
	if t.baseURL == nil || !strings.HasPrefix(link, "/") || strings.HasPrefix(link, "//") {
		return link
	}
	return t.baseURL.String() + link
}

var _ Resolver = (*Table)(nil)
