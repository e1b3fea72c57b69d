// Package models defines the domain types for sitemapd.
package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContentCategory is a class of publishable content (a "content type").
type ContentCategory struct {
	Slug       string `yaml:"slug" json:"slug"`
	Name       string `yaml:"name" json:"name"`
	Viewless   bool   `yaml:"viewless" json:"viewless"`
	Searchable *bool  `yaml:"searchable,omitempty" json:"searchable,omitempty"`
}

// DisplayName returns Name, or a title-cased form of the slug when Name is empty.
func (c ContentCategory) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(c.Slug)
	return cases.Title(language.English).String(words)
}

// IsSearchable reports whether the category takes part in the sitemap.
// An absent flag counts as searchable.
func (c ContentCategory) IsSearchable() bool {
	return c.Searchable == nil || *c.Searchable
}

// ContentEntry is one published content record within a category.
type ContentEntry struct {
	Category      string `json:"category"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Link          string `json:"link,omitempty"`
	Image         string `json:"image,omitempty"`
	DatePublished string `json:"datepublish,omitempty"`
	DateChanged   string `json:"datechanged,omitempty"`
	Path          string `json:"path,omitempty"` // source file, relative to the content root
}

// LinkEntry is one line of the sitemap.
type LinkEntry struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Depth        int    `json:"depth"`
	LastModified string `json:"lastmod,omitempty"`
	Image        string `json:"image,omitempty"`
	// Category is the slug of the category the link belongs to. Empty for the root.
	Category string        `json:"category,omitempty"`
	Record   *ContentEntry `json:"record,omitempty"`
}

// IsListing reports whether the link points at a category listing page.
func (l LinkEntry) IsListing() bool {
	return l.Depth > 0 && l.Record == nil
}
