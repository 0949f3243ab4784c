// Package mongo provides the MongoDB key-value driver. Each key is one
// document of a single collection with the key as `_id`.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ethicure/internal/kv/core"
)

const (
	defaultURI        = "mongodb://localhost:27017"
	defaultDatabase   = "ethicure"
	defaultCollection = "kv_entries"
)

// Config holds connection parameters.
type Config struct {
	URI        string
	Database   string
	Collection string
}

type record struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	Size      int64     `bson:"size"`
	Revision  int64     `bson:"revision"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store implements core.Store on a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// Open connects to the server and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		cfg.URI = defaultURI
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Driver returns the mongo driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMongo }

// Close disconnects the client.
func (s *Store) Close() error { return s.client.Disconnect(context.Background()) }

// Collection exposes the backing collection for tests.
func (s *Store) Collection() *mongo.Collection { return s.coll }

// Get finds the document by `_id`.
func (s *Store) Get(ctx context.Context, key string) (core.Entry, bool, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, false, core.ErrEmptyKey
	}
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Entry{}, false, nil
	}
	if err != nil {
		return core.Entry{}, false, fmt.Errorf("find %s: %w", key, err)
	}
	entry := toEntry(rec)
	entry.Value = rec.Payload
	return entry, true, nil
}

// Set upserts the document. Revisions are write times in nanoseconds, bumped
// past the stored revision when the clock has not advanced, so a key deleted
// and written again never repeats a revision.
func (s *Store) Set(ctx context.Context, key string, value []byte) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	now := s.now()
	update := bson.A{bson.M{"$set": bson.M{
		"payload":    bson.M{"$literal": value},
		"size":       int64(len(value)),
		"updated_at": now,
		"revision": bson.M{"$max": bson.A{
			now.UnixNano(),
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$revision", int64(0)}}, int64(1)}},
		}},
	}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After).SetProjection(bson.M{"payload": 0})
	var rec record
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&rec); err != nil {
		return core.Entry{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	return toEntry(rec), nil
}

// CompareAndSet inserts when expected is empty, otherwise updates the
// document only when its revision equals expected.
func (s *Store) CompareAndSet(ctx context.Context, key, expected string, value []byte) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	now := s.now()
	if expected == "" {
		rec := record{Key: key, Payload: value, Size: int64(len(value)), Revision: now.UnixNano(), UpdatedAt: now}
		if _, err := s.coll.InsertOne(ctx, rec); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return core.Entry{}, core.ErrConflict
			}
			return core.Entry{}, fmt.Errorf("insert %s: %w", key, err)
		}
		return toEntry(rec), nil
	}
	want, err := strconv.ParseInt(expected, 10, 64)
	if err != nil {
		return core.Entry{}, core.ErrConflict
	}
	next := nextRevision(want, now)
	update := bson.M{
		"$set": bson.M{"payload": value, "size": int64(len(value)), "updated_at": now, "revision": next},
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": key, "revision": want}, update)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update %s: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return core.Entry{}, core.ErrConflict
	}
	return core.Entry{Key: key, Revision: strconv.FormatInt(next, 10), Size: int64(len(value)), UpdatedAt: now}, nil
}

func nextRevision(prev int64, now time.Time) int64 {
	if next := now.UnixNano(); next > prev {
		return next
	}
	return prev + 1
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return res.DeletedCount > 0, nil
}

// List returns document metadata for keys with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Entry, error) {
	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"payload": 0}))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()
	var out []core.Entry
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		out = append(out, toEntry(rec))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func toEntry(rec record) core.Entry {
	return core.Entry{
		Key:       rec.Key,
		Revision:  strconv.FormatInt(rec.Revision, 10),
		Size:      rec.Size,
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
}
