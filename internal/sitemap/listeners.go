package sitemap

import (
	"context"

	"github.com/starford/sitemapd/internal/models"
)

// Dedupe drops links whose non-empty URL already appeared earlier in the list.
func Dedupe() Listener {
	return func(_ context.Context, links *LinkList) error {
		seen := make(map[string]struct{}, links.Len())
		links.Filter(func(l models.LinkEntry) bool {
			if l.URL == "" {
				return true
			}
			if _, dup := seen[l.URL]; dup {
				return false
			}
			seen[l.URL] = struct{}{}
			return true
		})
		return nil
	}
}
