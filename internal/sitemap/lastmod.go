package sitemap

import "github.com/starford/sitemapd/internal/content"

// W3CLayout is the W3C date-time format used for lastmod values. UTC is
// written as +00:00, not Z.
const W3CLayout = "2006-01-02T15:04:05-07:00"

// FormatW3C formats a stored timestamp as a W3C date-time. ok is false when
// raw is empty or cannot be parsed.
func FormatW3C(raw string) (string, bool) {
	t, ok := content.ParseTime(raw)
	if !ok {
		return "", false
	}
	return t.Format(W3CLayout), true
}
