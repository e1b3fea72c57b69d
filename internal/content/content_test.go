package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sitemapd/internal/apperr"
)

func tempContent(t *testing.T, categories ...string) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFS(dir, categories)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, store
}

func writeEntry(t *testing.T, root, rel, body string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testIndex(t *testing.T, categories ...string) *SQL {
	t.Helper()
	f, err := os.CreateTemp("", "sitemapd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	idx, err := OpenSQL(DriverSQLite, f.Name(), categories)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func seedArticles(t *testing.T, root string) {
	t.Helper()
	writeEntry(t, root, "articles/old.md", "---\ntitle: Old\ndatepublish: \"2023-01-01\"\n---\n")
	writeEntry(t, root, "articles/new.md", "---\ntitle: New\ndatepublish: \"2024-06-01 12:00:00\"\ndatechanged: \"2024-06-02T00:00:00Z\"\n---\n")
	writeEntry(t, root, "articles/undated.md", "# Undated\n")
	writeEntry(t, root, "articles/draft.md", "---\ntitle: Draft\nstatus: draft\ndatepublish: \"2025-01-01\"\n---\n")
}

func TestFS_QueryOrdersByPublishDateDesc(t *testing.T) {
	root, store := tempContent(t, "articles")
	seedArticles(t, root)

	got, err := store.Query(context.Background(), "articles", DefaultQuery())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var titles []string
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	want := []string{"New", "Old", "Undated"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("titles = %v, want %v", titles, want)
		}
	}
	if got[0].Slug != "new" || got[0].Category != "articles" || got[0].Path != "articles/new.md" {
		t.Errorf("entry = %+v", got[0])
	}
}

func TestFS_QueryLimit(t *testing.T) {
	root, store := tempContent(t, "articles")
	seedArticles(t, root)

	p := DefaultQuery()
	p.Limit = 1
	got, err := store.Query(context.Background(), "articles", p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "New" {
		t.Errorf("got %+v, want only New", got)
	}
}

func TestFS_QueryUnknownCategory(t *testing.T) {
	_, store := tempContent(t, "articles")
	_, err := store.Query(context.Background(), "pages", DefaultQuery())
	if !errors.Is(err, apperr.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestFS_QueryMissingDirIsEmpty(t *testing.T) {
	_, store := tempContent(t, "articles")
	got, err := store.Query(context.Background(), "articles", DefaultQuery())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestFS_ReadRejectsTraversal(t *testing.T) {
	_, store := tempContent(t, "articles")
	if _, err := store.Read("../etc/passwd"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestFS_ReadMissingIsNotFound(t *testing.T) {
	_, store := tempContent(t, "pages")
	if _, err := store.Read("pages/missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQL_SyncAndQuery(t *testing.T) {
	root, store := tempContent(t, "articles")
	seedArticles(t, root)
	idx := testIndex(t, "articles")

	if err := Sync(idx, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, err := idx.Query(context.Background(), "articles", DefaultQuery())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (draft excluded)", len(got))
	}
	if got[0].Title != "New" || got[1].Title != "Old" || got[2].Title != "Undated" {
		t.Errorf("order = %q, %q, %q", got[0].Title, got[1].Title, got[2].Title)
	}
	if got[0].DateChanged != "2024-06-02T00:00:00Z" {
		t.Errorf("datechanged = %q", got[0].DateChanged)
	}
}

func TestSQL_SyncRemovesStale(t *testing.T) {
	root, store := tempContent(t, "articles")
	seedArticles(t, root)
	idx := testIndex(t, "articles")
	logger := quietLogger()

	_ = Sync(idx, store, logger)
	_ = os.Remove(filepath.Join(root, "articles", "old.md"))
	_ = Sync(idx, store, logger)

	sums, err := idx.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sums["articles/old.md"]; ok {
		t.Error("removed file still indexed")
	}
	if _, ok := sums["articles/new.md"]; !ok {
		t.Error("existing file missing from index")
	}
}

func TestSQL_PublishedToDraftDropsEntry(t *testing.T) {
	root, store := tempContent(t, "articles")
	writeEntry(t, root, "articles/a.md", "---\ntitle: A\n---\n")
	idx := testIndex(t, "articles")
	logger := quietLogger()

	_ = Sync(idx, store, logger)
	writeEntry(t, root, "articles/a.md", "---\ntitle: A\nstatus: held\n---\n")
	_ = Sync(idx, store, logger)

	got, _ := idx.Query(context.Background(), "articles", DefaultQuery())
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestSQL_QueryUnknownCategory(t *testing.T) {
	idx := testIndex(t, "articles")
	_, err := idx.Query(context.Background(), "nope", DefaultQuery())
	if !errors.Is(err, apperr.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestRebind_Postgres(t *testing.T) {
	s := &SQL{driver: DriverPostgres}
	got := s.rebind("a = ? AND b = ?")
	if got != "a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}
	s.driver = DriverSQLite
	if s.rebind("a = ?") != "a = ?" {
		t.Error("sqlite query should be unchanged")
	}
}

func TestOpenSQL_UnknownDriver(t *testing.T) {
	if _, err := OpenSQL("oracle", "x", nil); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"index.db", "index.db?_journal_mode=WAL&_busy_timeout=5000"},
		{"file:index.db?cache=shared", "file:index.db?cache=shared&_journal_mode=WAL&_busy_timeout=5000"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenSQL_DSNWithQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQL(DriverSQLite, "file:"+path+"?_foreign_keys=1", []string{"articles"})
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer idx.Close()

	var mode string
	if err := idx.conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestParseTime(t *testing.T) {
	for _, raw := range []string{"2024-01-01", "2024-01-01 10:00:00", "2024-01-01T00:00:00+02:00"} {
		if _, ok := ParseTime(raw); !ok {
			t.Errorf("ParseTime(%q) failed", raw)
		}
	}
	if _, ok := ParseTime("yesterday-ish"); ok {
		t.Error("expected garbage to fail")
	}
	if _, ok := ParseTime(""); ok {
		t.Error("expected empty to fail")
	}
}
