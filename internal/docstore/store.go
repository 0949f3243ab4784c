// Package docstore reads and writes role documents as JSON under namespaced
// keys, reconciling stored data with the role's default document.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"ethicure/internal/kv"
	"ethicure/internal/observability"
	"ethicure/pkg/domain"
)

// DefaultPrefix namespaces every key when no prefix is configured.
const DefaultPrefix = "app"

// Schema declares a role document: its defaults and the top-level fields that
// must never be absent or falsy after a read.
type Schema[T any] struct {
	Role     domain.Role
	Required []string
	Defaults func(now time.Time, owner domain.Owner) T
}

// Document is a reconciled role document together with the storage state it
// was read from.
type Document[T any] struct {
	Key      string
	Data     T
	Extra    map[string]json.RawMessage
	Revision string
	// Fallbacks lists stored fields that could not be decoded. Their stored
	// bytes are written back until a change replaces the field.
	Fallbacks []FieldFallback
	// Stored is false when the key did not exist and Data holds defaults.
	Stored bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	prefix  string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	now     func() time.Time
}

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if p := strings.TrimSpace(prefix); p != "" {
			o.prefix = p
		}
	}
}

// WithLogger sets the logger used for corruption warnings and debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the recorder observing reads and writes.
func WithMetrics(rec observability.MetricsRecorder) Option {
	return func(o *options) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithClock overrides the time source used to build defaults.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Store persists documents of one role.
type Store[T any] struct {
	kv     kv.Store
	schema Schema[T]
	opts   options
}

// New builds a Store for schema on top of store.
func New[T any](store kv.Store, schema Schema[T], opts ...Option) (*Store[T], error) {
	if store == nil {
		return nil, errors.New("docstore: nil kv store")
	}
	if schema.Defaults == nil {
		return nil, fmt.Errorf("docstore: %s schema has no defaults", schema.Role)
	}
	var zero T
	idx, err := indexFields(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	for _, name := range schema.Required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("docstore: %s schema requires unknown field %q", schema.Role, name)
		}
	}
	o := options{
		prefix:  DefaultPrefix,
		logger:  observability.DiscardLogger(),
		metrics: observability.NoopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{kv: store, schema: schema, opts: o}, nil
}

// Role returns the role the store serves.
func (s *Store[T]) Role() domain.Role { return s.schema.Role }

// Key returns the storage key for username.
func (s *Store[T]) Key(username string) string {
	return Key(s.opts.prefix, s.schema.Role, username)
}

// Key builds `{prefix}:{role}:{username}`.
func Key(prefix string, role domain.Role, username string) string {
	return prefix + ":" + string(role) + ":" + username
}

// Defaults returns a fresh default document for owner.
func (s *Store[T]) Defaults(owner domain.Owner) T {
	return s.schema.Defaults(s.opts.now(), owner)
}

// Read loads the document for owner. A missing key yields defaults; bytes
// that are not a JSON object are logged and also yield defaults, leaving the
// stored value untouched until the next write. Backend failures are returned.
func (s *Store[T]) Read(ctx context.Context, owner domain.Owner) (doc Document[T], err error) {
	defer observability.Since(ctx, s.opts.metrics, "docstore.read", time.Now(), &err)
	key := s.Key(owner.Username)
	doc = Document[T]{Key: key, Data: s.Defaults(owner)}
	entry, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return doc, fmt.Errorf("docstore: read %s: %w", key, err)
	}
	if !found {
		s.opts.logger.Debug("document missing, using defaults", "key", key)
		return doc, nil
	}
	doc.Stored = true
	doc.Revision = entry.Revision
	merged, rerr := Reconcile(entry.Value, doc.Data, s.schema.Required)
	if rerr != nil {
		s.opts.logger.Warn("stored document unreadable, using defaults", "key", key, "error", rerr)
		return doc, nil
	}
	for _, fb := range merged.Fallbacks {
		s.opts.logger.Warn("stored field unreadable, using default", "key", key, "field", fb.Field, "error", fb.Err)
	}
	doc.Data = merged.Data
	doc.Extra = merged.Extra
	doc.Fallbacks = merged.Fallbacks
	s.opts.logger.Debug("document loaded", "key", key, "revision", entry.Revision)
	return doc, nil
}

// Write stores doc unconditionally and updates its revision.
func (s *Store[T]) Write(ctx context.Context, doc *Document[T]) (err error) {
	defer observability.Since(ctx, s.opts.metrics, "docstore.write", time.Now(), &err)
	return s.put(doc, func(key string, raw []byte) (kv.Entry, error) {
		return s.kv.Set(ctx, key, raw)
	})
}

// WriteIfUnchanged stores doc only if the stored revision still matches the
// one doc was read at. Otherwise it returns an error wrapping kv.ErrConflict.
func (s *Store[T]) WriteIfUnchanged(ctx context.Context, doc *Document[T]) (err error) {
	defer observability.Since(ctx, s.opts.metrics, "docstore.write_cas", time.Now(), &err)
	return s.put(doc, func(key string, raw []byte) (kv.Entry, error) {
		return s.kv.CompareAndSet(ctx, key, doc.Revision, raw)
	})
}

func (s *Store[T]) put(doc *Document[T], write func(key string, raw []byte) (kv.Entry, error)) error {
	if doc == nil || doc.Key == "" {
		return errors.New("docstore: document has no key")
	}
	raw, kept, err := encode(doc.Data, doc.Extra, doc.Fallbacks)
	if err != nil {
		return err
	}
	entry, err := write(doc.Key, raw)
	if err != nil {
		return fmt.Errorf("docstore: write %s: %w", doc.Key, err)
	}
	doc.Revision = entry.Revision
	doc.Fallbacks = kept
	doc.Stored = true
	s.opts.logger.Debug("document saved", "key", doc.Key, "revision", entry.Revision, "bytes", len(raw))
	return nil
}

// Encode returns the JSON that Write would store for doc.
func (s *Store[T]) Encode(doc Document[T]) ([]byte, error) {
	return Encode(doc.Data, doc.Extra, doc.Fallbacks...)
}
