package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sitemapd/internal/routes"
)

// NewRouter creates the chi router served under /api.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/links", h.Links)
	r.Get("/categories", h.Categories)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// MountSitemaps registers the public sitemap pages on r at the paths the
// route table resolves for the sitemap and sitemapXml routes.
func MountSitemaps(r chi.Router, h *Handler, tbl *routes.Table) error {
	htmlPath, err := tbl.Resolve(routes.Sitemap, nil)
	if err != nil {
		return fmt.Errorf("mount sitemap: %w", err)
	}
	xmlPath, err := tbl.Resolve(routes.SitemapXML, nil)
	if err != nil {
		return fmt.Errorf("mount sitemap: %w", err)
	}
	r.Get(htmlPath, h.SitemapHTML)
	r.Head(htmlPath, h.SitemapHTML)
	r.Get(xmlPath, h.SitemapXML)
	r.Head(xmlPath, h.SitemapXML)
	return nil
}
