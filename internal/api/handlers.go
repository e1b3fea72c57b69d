package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/sitemapd/internal/logfields"
	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/sitemapservice"
)

// Sitemaps is what the handlers need from the sitemap service.
type Sitemaps interface {
	Links(ctx context.Context) ([]models.LinkEntry, error)
	HTML(ctx context.Context) (*sitemapservice.Document, error)
	XML(ctx context.Context) (*sitemapservice.Document, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc        Sitemaps
	categories func() []models.ContentCategory
}

// NewHandler creates a new Handler. categories lists the categories that
// contribute to the sitemap and may be nil.
func NewHandler(svc Sitemaps, categories func() []models.ContentCategory) *Handler {
	if categories == nil {
		categories = func() []models.ContentCategory { return nil }
	}
	return &Handler{svc: svc, categories: categories}
}

// SitemapHTML handles GET /sitemap.
func (h *Handler) SitemapHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.HTML(r.Context())
	h.serveDocument(w, r, sitemapservice.FormatHTML, doc, err)
}

// SitemapXML handles GET /sitemap.xml.
func (h *Handler) SitemapXML(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.XML(r.Context())
	h.serveDocument(w, r, sitemapservice.FormatXML, doc, err)
}

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, format string, doc *sitemapservice.Document, err error) {
	if err != nil {
		slog.Error("render sitemap failed", logfields.Format(format), logfields.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", doc.ETag)
	w.Header().Set("Last-Modified", doc.GeneratedAt.Format(http.TimeFormat))
	if etagMatches(r.Header.Get("If-None-Match"), doc.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(doc.Body)
}

// etagMatches reports whether an If-None-Match header value matches etag
// under weak comparison. The header may list several tags or be "*".
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// Links handles GET /api/links.
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.Links(r.Context())
	if err != nil {
		slog.Error("collect links failed", logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := LinksResponse{Links: make([]Link, 0, len(links)), Total: len(links)}
	for _, l := range links {
		resp.Links = append(resp.Links, toLink(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	cats := h.categories()
	resp := CategoriesResponse{Categories: make([]Category, 0, len(cats))}
	for _, c := range cats {
		resp.Categories = append(resp.Categories, Category{Slug: c.Slug, Name: c.DisplayName()})
	}
	writeJSON(w, http.StatusOK, resp)
}
