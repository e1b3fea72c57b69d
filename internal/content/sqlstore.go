package content

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/sitemapd/internal/apperr"
	"github.com/starford/sitemapd/internal/models"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	path           TEXT PRIMARY KEY,
	category       TEXT NOT NULL,
	slug           TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	link           TEXT NOT NULL DEFAULT '',
	image          TEXT NOT NULL DEFAULT '',
	date_published TEXT NOT NULL DEFAULT '',
	date_changed   TEXT NOT NULL DEFAULT '',
	published_at   TEXT NOT NULL DEFAULT '',
	changed_at     TEXT NOT NULL DEFAULT '',
	checksum       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category, published_at);
`

// sortableLayout keeps timestamps lexically ordered in a TEXT column.
const sortableLayout = "2006-01-02T15:04:05.000000000Z"

// SQL is a Store backed by a relational index of the content tree.
// The index is filled by Sync and kept current by Watch.
type SQL struct {
	conn       *sql.DB
	driver     string
	categories map[string]struct{}
}

// sqliteDSN appends the journal and busy-timeout parameters to dsn,
// which may already carry its own query string.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

// OpenSQL opens (or creates) the index database and applies the schema.
func OpenSQL(driver, dsn string, categories []string) (*SQL, error) {
	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite3"
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		name = "pgx"
	default:
		return nil, fmt.Errorf("content: unsupported driver %q", driver)
	}
	conn, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("content: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("content: ping: %w", err)
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("content: apply schema: %w", err)
		}
	}
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}
	return &SQL{conn: conn, driver: driver, categories: known}, nil
}

// Close closes the underlying database connection.
func (s *SQL) Close() error {
	return s.conn.Close()
}

// Ping checks the database connection.
func (s *SQL) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *SQL) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UpsertEntry inserts or replaces the indexed row for e.
func (s *SQL) UpsertEntry(e models.ContentEntry, sum string) error {
	_, err := s.conn.Exec(s.rebind(`
		INSERT INTO entries (path, category, slug, title, link, image,
			date_published, date_changed, published_at, changed_at, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			category       = excluded.category,
			slug           = excluded.slug,
			title          = excluded.title,
			link           = excluded.link,
			image          = excluded.image,
			date_published = excluded.date_published,
			date_changed   = excluded.date_changed,
			published_at   = excluded.published_at,
			changed_at     = excluded.changed_at,
			checksum       = excluded.checksum
	`), e.Path, e.Category, e.Slug, e.Title, e.Link, e.Image,
		e.DatePublished, e.DateChanged, sortable(e.DatePublished), sortable(e.DateChanged), sum)
	if err != nil {
		return fmt.Errorf("content: upsert %s: %w", e.Path, err)
	}
	return nil
}

// DeleteEntry removes the indexed row for path.
func (s *SQL) DeleteEntry(path string) error {
	if _, err := s.conn.Exec(s.rebind(`DELETE FROM entries WHERE path = ?`), path); err != nil {
		return fmt.Errorf("content: delete %s: %w", path, err)
	}
	return nil
}

// AllChecksums returns the stored checksum of every indexed path.
func (s *SQL) AllChecksums() (map[string]string, error) {
	rows, err := s.conn.Query(`SELECT path, checksum FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("content: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Query returns indexed entries of category ordered per p.
func (s *SQL) Query(ctx context.Context, category string, p QueryParams) ([]models.ContentEntry, error) {
	if _, ok := s.categories[category]; !ok {
		return nil, fmt.Errorf("content: query %q: %w", category, apperr.ErrUnknownCategory)
	}

	// Undated rows go last regardless of direction.
	order := "published_at = '' ASC, published_at"
	switch p.OrderBy {
	case OrderDateChanged:
		order = "changed_at = '' ASC, changed_at"
	case OrderTitle:
		order = "title"
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := fmt.Sprintf(`
		SELECT path, category, slug, title, link, image, date_published, date_changed
		FROM entries
		WHERE category = ?
		ORDER BY %s %s, path ASC
		LIMIT ?`, order, dir)
	rows, err := s.conn.QueryContext(ctx, s.rebind(q), category, limit)
	if err != nil {
		return nil, fmt.Errorf("content: query %q: %w", category, err)
	}
	defer rows.Close()

	out := []models.ContentEntry{}
	for rows.Next() {
		var e models.ContentEntry
		if err := rows.Scan(&e.Path, &e.Category, &e.Slug, &e.Title, &e.Link, &e.Image,
			&e.DatePublished, &e.DateChanged); err != nil {
			return nil, fmt.Errorf("content: scan %q: %w", category, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func sortable(raw string) string {
	t, ok := ParseTime(raw)
	if !ok {
		return ""
	}
	return t.UTC().Format(sortableLayout)
}

var _ Store = (*SQL)(nil)
var _ Store = (*FS)(nil)
