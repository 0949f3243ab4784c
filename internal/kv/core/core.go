// Package core defines the key-value storage abstraction shared by every
// persistence driver. Values are opaque bytes; revisions are opaque tokens
// that only the issuing driver interprets.
package core

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete key-value backend implementation.
type Driver string

const (
	// DriverMemory keeps entries in process memory (tests, ephemeral runs).
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverSQLite stores entries in a single SQLite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores entries in a single Postgres table.
	DriverPostgres Driver = "postgres"
	// DriverMongo stores entries as documents of one MongoDB collection.
	DriverMongo Driver = "mongo"
	// DriverS3 stores entries as objects of an S3 / MinIO bucket.
	DriverS3 Driver = "s3"
)

// Entry describes a stored value. List results leave Value nil.
type Entry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"-"`
	Revision  string    `json:"revision"`
	Size      int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the contract every key-value driver satisfies. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the entry stored at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (entry Entry, found bool, err error)
	// Set overwrites key unconditionally and returns the new entry metadata.
	Set(ctx context.Context, key string, value []byte) (Entry, error)
	// CompareAndSet writes only when the stored revision equals expected.
	// An empty expected revision requires the key to be absent. Mismatches
	// return ErrConflict.
	CompareAndSet(ctx context.Context, key, expected string, value []byte) (Entry, error)
	// Delete removes key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns entry metadata for keys with the prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Entry, error)
	// Driver returns the backend identifier.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}

// ErrConflict is returned by CompareAndSet when the stored revision differs
// from the expected one.
var ErrConflict = errors.New("kv: revision conflict")

// ErrEmptyKey is returned when an operation receives a blank key.
var ErrEmptyKey = errors.New("kv: empty key")
