package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/sitemapd/internal/apperr"
	"github.com/starford/sitemapd/internal/checksum"
	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/parser"
)

// FileMeta describes one Markdown file in the content tree.
type FileMeta struct {
	Path     string // relative to the content root, slash separated
	Category string
	Checksum string
}

// FS is a Store backed by a directory tree laid out as <root>/<category>/**/*.md.
type FS struct {
	root       string // absolute path to the content directory
	categories map[string]struct{}
}

// NewFS creates a filesystem store rooted at root serving the given categories.
// The directory must already exist.
func NewFS(root string, categories []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("content: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("content: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content: root is not a directory: %s", abs)
	}
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}
	return &FS{root: abs, categories: known}, nil
}

// Root returns the absolute content directory.
func (f *FS) Root() string { return f.root }

// Knows reports whether category is served by this store.
func (f *FS) Knows(category string) bool {
	_, ok := f.categories[category]
	return ok
}

// safePath resolves a relative path against the content root and rejects
// any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("content: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("content: path escapes content root: %s", rel)
	}
	return abs, nil
}

// Read returns the raw bytes of a content file. A missing file yields
// apperr.ErrNotFound.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("content: read %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	return data, nil
}

// CategoryOf returns the category a relative path belongs to, or "" when
// the path is outside every known category directory.
func (f *FS) CategoryOf(rel string) string {
	first, _, ok := strings.Cut(filepath.ToSlash(rel), "/")
	if !ok || !f.Knows(first) {
		return ""
	}
	return first
}

// Files lists every Markdown file under the known category directories.
// A category without a directory contributes nothing.
func (f *FS) Files() ([]FileMeta, error) {
	var out []FileMeta
	for category := range f.categories {
		dir, err := f.safePath(category)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if errors.Is(walkErr, fs.ErrNotExist) && p == dir {
					return fs.SkipDir
				}
				return walkErr
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(f.root, p)
			out = append(out, FileMeta{
				Path:     filepath.ToSlash(rel),
				Category: category,
				Checksum: checksum.Sum(data),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("content: list %s: %w", category, err)
		}
	}
	return out, nil
}

// Entry parses the file at rel into a ContentEntry. ok is false for
// unpublished entries.
func (f *FS) Entry(rel string, data []byte) (models.ContentEntry, bool, error) {
	res, err := parser.Parse(rel, data)
	if err != nil {
		return models.ContentEntry{}, false, err
	}
	if !res.Published() {
		return models.ContentEntry{}, false, nil
	}
	return models.ContentEntry{
		Category:      f.CategoryOf(rel),
		Slug:          res.Slug,
		Title:         res.Title,
		Link:          res.Link,
		Image:         res.Image,
		DatePublished: res.DatePublished,
		DateChanged:   res.DateChanged,
		Path:          filepath.ToSlash(rel),
	}, true, nil
}

// Query reads and parses every published entry of category.
func (f *FS) Query(ctx context.Context, category string, p QueryParams) ([]models.ContentEntry, error) {
	if !f.Knows(category) {
		return nil, fmt.Errorf("content: query %q: %w", category, apperr.ErrUnknownCategory)
	}
	dir, err := f.safePath(category)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return []models.ContentEntry{}, nil
	}

	var out []models.ContentEntry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, path)
		entry, ok, err := f.Entry(rel, data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", rel, err)
		}
		if ok {
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("content: query %q: %w", category, err)
	}
	return orderEntries(out, p), nil
}
