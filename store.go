package spacetraveling

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StoredPage is a built page as persisted in the page store.
type StoredPage struct {
	Key     string
	Body    []byte
	BuiltAt time.Time
}

// Store wraps a SQLite database holding rendered pages. It never holds post
// content, only the output built from it.
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
	// WAL lets readers proceed during a prebuild transaction; the busy
	// timeout makes concurrent background saves wait instead of failing.
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
    key TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    built_at TEXT NOT NULL
);
`)
	return err
}

// SavePage upserts one built page.
func (s *Store) SavePage(ctx context.Context, key string, body []byte, builtAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO pages (key, body, built_at) VALUES (?, ?, ?)`,
		key, body, builtAt.UTC().Format(time.RFC3339Nano))
	return err
}

// SavePages writes all pages in one transaction: either every page is stored
// or none is.
func (s *Store) SavePages(ctx context.Context, pages []StoredPage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO pages (key, body, built_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range pages {
		if _, err := stmt.ExecContext(ctx, p.Key, p.Body, p.BuiltAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPage returns a stored page. It returns sql.ErrNoRows if key was never
// stored.
func (s *Store) GetPage(ctx context.Context, key string) (StoredPage, error) {
	var body []byte
	var builtAt string
	err := s.db.QueryRowContext(ctx, `SELECT body, built_at FROM pages WHERE key = ?`, key).Scan(&body, &builtAt)
	if err != nil {
		return StoredPage{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, builtAt)
	if err != nil {
		return StoredPage{}, err
	}
	return StoredPage{Key: key, Body: body, BuiltAt: t}, nil
}

// ListPages returns every stored page ordered by key.
func (s *Store) ListPages(ctx context.Context) ([]StoredPage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, body, built_at FROM pages ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []StoredPage
	for rows.Next() {
		var p StoredPage
		var builtAt string
		if err := rows.Scan(&p.Key, &p.Body, &builtAt); err != nil {
			return nil, err
		}
		if p.BuiltAt, err = time.Parse(time.RFC3339Nano, builtAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// DeletePage removes a page by key.
func (s *Store) DeletePage(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE key = ?`, key)
	return err
}
