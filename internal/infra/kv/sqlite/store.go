// Package sqlite provides the SQLite key-value driver backed by the pure-Go
// modernc.org/sqlite engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ethicure/internal/infra/kv/sqlkv"
	"ethicure/internal/kv/core"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultPath = "ethicure.db"

// Store is a sqlkv.Store on a SQLite database file.
type Store struct {
	*sqlkv.Store
	path string
}

// Open opens (creating if necessary) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps writers from tripping over SQLITE_BUSY
	db.SetMaxOpenConns(1)
	inner, err := sqlkv.New(ctx, db, "", sqlkv.Dialect{
		Driver:      core.DriverSQLite,
		BlobType:    "BLOB",
		Placeholder: sqlkv.QuestionPlaceholders,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }
