// Package logfields holds the canonical slog attribute keys used across sitemapd.
package logfields

import (
	"log/slog"
	"time"
)

const (
	KeyPath       = "path"
	KeyCategory   = "category"
	KeyRoute      = "route"
	KeyFormat     = "format"
	KeyLinks      = "links"
	KeyDurationMS = "duration_ms"
	KeyEvent      = "event"
	KeyError      = "error"
)

func Path(p string) slog.Attr     { return slog.String(KeyPath, p) }
func Category(c string) slog.Attr { return slog.String(KeyCategory, c) }
func Route(r string) slog.Attr    { return slog.String(KeyRoute, r) }
func Format(f string) slog.Attr   { return slog.String(KeyFormat, f) }
func Links(n int) slog.Attr       { return slog.Int(KeyLinks, n) }
func Event(kind string) slog.Attr { return slog.String(KeyEvent, kind) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

// Error returns an error attribute; a nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
