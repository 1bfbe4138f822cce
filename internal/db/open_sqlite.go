//go:build !mem

package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/msgbus/pkg/api"
)

type sqliteStore struct{ db *sql.DB }

// openSQLite connects to a SQLite database using modernc.org/sqlite driver and ensures schema exists.
func openSQLite(ctx context.Context, dsn string) (Store, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// set WAL mode
	if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	return &sqliteStore{db: dbh}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS items (
  namespace TEXT NOT NULL,
  name TEXT NOT NULL,
  translation TEXT NOT NULL DEFAULT '',
  intro TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP NOT NULL,
  PRIMARY KEY(namespace, name)
);
CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);
`)
	return err
}

func (s *sqliteStore) ListItems(ctx context.Context, namespace string) ([]api.Item, error) {
	q := `SELECT namespace, name, translation, intro, updated_at FROM items`
	var args []any
	if namespace != "" {
		q += ` WHERE namespace=?`
		args = append(args, namespace)
	}
	q += ` ORDER BY namespace, name`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Item{}
	for rows.Next() {
		var it api.Item
		if err := rows.Scan(&it.Namespace, &it.Name, &it.Translation, &it.Intro, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *sqliteStore) LookupItem(ctx context.Context, name string) (api.Item, error) {
	var it api.Item
	row := s.db.QueryRowContext(ctx, `SELECT namespace, name, translation, intro, updated_at FROM items WHERE name=? ORDER BY namespace LIMIT 1`, name)
	if err := row.Scan(&it.Namespace, &it.Name, &it.Translation, &it.Intro, &it.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return api.Item{}, ErrNotFound
		}
		return api.Item{}, err
	}
	return it, nil
}

func (s *sqliteStore) PutItems(ctx context.Context, items []api.Item) error {
	items, err := normalizeItems(items)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := time.Now().UTC()
	for _, it := range items {
		ts := it.UpdatedAt
		if ts.IsZero() {
			ts = now
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO items(namespace, name, translation, intro, updated_at) VALUES(?,?,?,?,?)
ON CONFLICT(namespace, name) DO UPDATE SET translation=excluded.translation, intro=excluded.intro, updated_at=excluded.updated_at`,
			it.Namespace, it.Name, it.Translation, it.Intro, ts.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT namespace FROM items ORDER BY namespace`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error { return s.db.Close() }
