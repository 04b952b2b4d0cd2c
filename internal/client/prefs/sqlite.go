// Package prefs persists small client-side settings, currently the UI
// language, in a local sqlite database so they survive restarts and
// work offline.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/dbx"
)

// OpenDB opens (creating if needed) the local settings database.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	return db, nil
}

// SqliteKV is a string key/value table scoped by principal, so settings
// of different accounts on the same machine never collide.
type SqliteKV struct {
	db dbx.DBTX
}

func NewSqliteKV(db dbx.DBTX) *SqliteKV {
	return &SqliteKV{db: db}
}

// Init creates the settings table.
func (r *SqliteKV) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS settings (
			principal TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (principal, key)
		);`)
	if err != nil {
		return fmt.Errorf("init settings table: %w", err)
	}
	return nil
}

func (r *SqliteKV) Get(ctx context.Context, principal, key string) (string, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE principal = ? AND key = ?`, principal, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SqliteKV) Set(ctx context.Context, principal, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (principal, key, value) VALUES (?, ?, ?)
		ON CONFLICT (principal, key) DO UPDATE SET value = excluded.value`,
		principal, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
