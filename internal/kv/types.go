// Package kv re-exports the key-value storage abstractions and selects a
// driver from configuration. Packages outside internal/kv depend on kv.Store
// rather than on the infra driver packages.
package kv

import (
	"ethicure/internal/kv/core"
)

type (
	// Driver identifies a key-value backend.
	Driver = core.Driver
	// Entry describes a stored value and its revision.
	Entry = core.Entry
	// Store is the interface for key-value backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
	// DriverFilesystem is the local directory driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverSQLite is the SQLite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the Postgres driver.
	DriverPostgres = core.DriverPostgres
	// DriverMongo is the MongoDB driver.
	DriverMongo = core.DriverMongo
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
)

var (
	// ErrConflict reports a failed compare-and-set.
	ErrConflict = core.ErrConflict
	// ErrEmptyKey reports a blank key.
	ErrEmptyKey = core.ErrEmptyKey
)
