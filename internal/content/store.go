// Package content provides the content stores the sitemap reads entries from.
package content

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/cast"

	"github.com/starford/sitemapd/internal/models"
)

// DefaultLimit caps the number of entries fetched per category.
const DefaultLimit = 10000

// Order fields understood by the stores.
const (
	OrderDatePublish = "datepublish"
	OrderDateChanged = "datechanged"
	OrderTitle       = "title"
)

// QueryParams controls a category query.
//
// Hydrate asks for full records; the stores always return the lightweight
// projection (link, title, dates, image), so it is accepted but has no effect.
type QueryParams struct {
	Limit   int
	OrderBy string
	Desc    bool
	Hydrate bool
}

// DefaultQuery is the query the sitemap issues for every category.
func DefaultQuery() QueryParams {
	return QueryParams{Limit: DefaultLimit, OrderBy: OrderDatePublish, Desc: true}
}

// Store returns the published entries of one category.
// Querying a category the store does not know must fail with apperr.ErrUnknownCategory.
type Store interface {
	Query(ctx context.Context, category string, p QueryParams) ([]models.ContentEntry, error)
}

// ParseTime parses a stored date in any of the common layouts.
// The zero time and false are returned for empty or unparseable input.
func ParseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := cast.ToTimeInDefaultLocationE(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// orderEntries sorts entries in place per p and applies the limit.
// Entries without a parseable date sort after dated ones; ties keep path order.
func orderEntries(entries []models.ContentEntry, p QueryParams) []models.ContentEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	switch p.OrderBy {
	case OrderTitle:
		sort.SliceStable(entries, func(i, j int) bool {
			if p.Desc {
				return entries[i].Title > entries[j].Title
			}
			return entries[i].Title < entries[j].Title
		})
	case OrderDatePublish, OrderDateChanged, "":
		field := func(e models.ContentEntry) string { return e.DatePublished }
		if p.OrderBy == OrderDateChanged {
			field = func(e models.ContentEntry) string { return e.DateChanged }
		}
		sort.SliceStable(entries, func(i, j int) bool {
			ti, okI := ParseTime(field(entries[i]))
			tj, okJ := ParseTime(field(entries[j]))
			switch {
			case okI && !okJ:
				return true
			case !okI:
				return false
			case p.Desc:
				return ti.After(tj)
			default:
				return ti.Before(tj)
			}
		})
	}

	if p.Limit > 0 && len(entries) > p.Limit {
		entries = entries[:p.Limit]
	}
	return entries
}
