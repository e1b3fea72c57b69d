// Package testutil provides shared test helpers for content trees and indexes.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sitemapd/internal/content"
)

// TestIndex creates a temporary SQLite index that is automatically cleaned up.
func TestIndex(t *testing.T, categories ...string) *content.SQL {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sitemapd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	idx, err := content.OpenSQL(content.DriverSQLite, dbFile.Name(), categories)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

// TestContent creates a temporary content root with a filesystem store.
func TestContent(t *testing.T, categories ...string) (string, *content.FS) {
	t.Helper()
	root := t.TempDir()
	store, err := content.NewFS(root, categories)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// WriteEntry writes a content file at rel below root, creating directories.
func WriteEntry(t *testing.T, root, rel, body string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
