package layoutkit

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested page does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides CRUD operations for pages.
// Statements run with a context carrying a QueryLog are recorded in it.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while the admin writes; the busy timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    url TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    template TEXT NOT NULL DEFAULT 'page.html',
    published INTEGER NOT NULL DEFAULT 1,
    updated TEXT NOT NULL
);
`)
	return err
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	QueryLogFrom(ctx).Record(q, time.Since(start))
	return rows, err
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	start := time.Now()
	row := s.db.QueryRowContext(ctx, q, args...)
	QueryLogFrom(ctx).Record(q, time.Since(start))
	return row
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, q, args...)
	QueryLogFrom(ctx).Record(q, time.Since(start))
	return res, err
}

const pageColumns = `url, title, content, template, published, updated`

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(sc scanner) (FlatPage, error) {
	var (
		p         FlatPage
		published int
		updated   string
	)
	if err := sc.Scan(&p.URL, &p.Title, &p.Content, &p.Template, &published, &updated); err != nil {
		return FlatPage{}, err
	}
	p.Published = published == 1
	p.Updated, _ = time.Parse(time.RFC3339, updated)
	return p, nil
}

func (s *Store) listPages(ctx context.Context, q string) ([]FlatPage, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []FlatPage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListPages returns all published pages ordered by URL.
func (s *Store) ListPages(ctx context.Context) ([]FlatPage, error) {
	return s.listPages(ctx, `SELECT `+pageColumns+` FROM pages WHERE published = 1 ORDER BY url`)
}

// ListAllPages returns every page (published and drafts) ordered by URL.
func (s *Store) ListAllPages(ctx context.Context) ([]FlatPage, error) {
	return s.listPages(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY url`)
}

// GetPage returns a single published page by URL.
func (s *Store) GetPage(ctx context.Context, url string) (FlatPage, error) {
	return scanPage(s.queryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE url = ? AND published = 1`, url))
}

// GetPageAny returns a page by URL regardless of published status (for admin).
func (s *Store) GetPageAny(ctx context.Context, url string) (FlatPage, error) {
	return scanPage(s.queryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE url = ?`, url))
}

// SavePage upserts a page and stamps its update time.
func (s *Store) SavePage(ctx context.Context, p FlatPage) error {
	published := 0
	if p.Published {
		published = 1
	}
	_, err := s.exec(ctx, `INSERT OR REPLACE INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.URL, p.Title, p.Content, p.Template, published, time.Now().UTC().Format(time.RFC3339))
	return err
}

// DeletePage removes a page by URL. Deleting a missing page returns ErrNotFound.
func (s *Store) DeletePage(ctx context.Context, url string) error {
	res, err := s.exec(ctx, `DELETE FROM pages WHERE url = ?`, url)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
