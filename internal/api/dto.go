package api

import "github.com/starford/sitemapd/internal/models"

// Link is one entry of the JSON link listing.
type Link struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Depth        int    `json:"depth"`
	LastModified string `json:"lastmod,omitempty"`
	Image        string `json:"image,omitempty"`
	Category     string `json:"category,omitempty"`
	Slug         string `json:"slug,omitempty"`
}

// LinksResponse wraps the collected link list.
type LinksResponse struct {
	Links []Link `json:"links"`
	Total int    `json:"total"`
}

// Category describes a content category that contributes to the sitemap.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CategoriesResponse wraps the eligible categories.
type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}

func toLink(l models.LinkEntry) Link {
	out := Link{
		URL:          l.URL,
		Title:        l.Title,
		Depth:        l.Depth,
		LastModified: l.LastModified,
		Image:        l.Image,
		Category:     l.Category,
	}
	if l.Record != nil {
		out.Slug = l.Record.Slug
	}
	return out
}
