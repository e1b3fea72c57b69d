// Package apperr holds the sentinel errors shared across sitemapd packages.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownCategory  = errors.New("unknown content category")
	ErrUnknownRoute     = errors.New("unknown route")
	ErrMissingParameter = errors.New("missing route parameter")
	ErrInvalidPattern   = errors.New("invalid ignore pattern")
)
