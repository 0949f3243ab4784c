// Package postgres provides the Postgres key-value driver using pgx through
// database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"ethicure/internal/infra/kv/sqlkv"
	"ethicure/internal/kv/core"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/ethicure?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sql.Open implementation (tests) and returns a
// function restoring the previous one.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store is a sqlkv.Store on a Postgres database.
type Store struct {
	*sqlkv.Store
}

// Open connects using dsn (falling back to a local default), pings the
// server and ensures the kv table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	inner, err := sqlkv.New(ctx, db, "", sqlkv.Dialect{
		Driver:      core.DriverPostgres,
		BlobType:    "BYTEA",
		Placeholder: sqlkv.DollarPlaceholders,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}
