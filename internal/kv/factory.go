package kv

import (
	"context"
	"fmt"

	"ethicure/internal/config"
	"ethicure/internal/infra/kv/fs"
	"ethicure/internal/infra/kv/memory"
	"ethicure/internal/infra/kv/mongo"
	"ethicure/internal/infra/kv/postgres"
	"ethicure/internal/infra/kv/s3"
	"ethicure/internal/infra/kv/sqlite"
)

// Open selects a Store implementation from cfg.Driver (default fs).
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return wrap(fs.New(cfg.FSRoot))
	case DriverSQLite:
		return wrap(sqlite.Open(ctx, cfg.SQLitePath))
	case DriverPostgres:
		return wrap(postgres.Open(ctx, cfg.PostgresDSN))
	case DriverMongo:
		return wrap(mongo.Open(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		}))
	case DriverS3:
		return wrap(s3.New(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			SessionToken:    cfg.S3.SessionToken,
		}))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// wrap keeps a failed constructor's typed nil pointer out of the interface.
func wrap[S Store](store S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memory.New() }
