// Package core holds the role workspaces: one loaded document per role and
// user, and the mutation and summary operations each dashboard performs on it.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ethicure/internal/docstore"
	"ethicure/internal/ids"
	"ethicure/internal/observability"
	"ethicure/pkg/domain"
)

// WriteMode selects how mutations are written back.
type WriteMode string

// Write modes.
const (
	// LastWriterWins overwrites the stored document unconditionally.
	LastWriterWins WriteMode = "lww"
	// CompareAndSwap writes only if nobody else wrote since the last read.
	CompareAndSwap WriteMode = "cas"
)

// Option configures a workspace.
type Option func(*settings)

type settings struct {
	mode    WriteMode
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	now     func() time.Time
	loc     *time.Location
	ids     ids.Generator
}

func defaultSettings() settings {
	return settings{
		mode:    LastWriterWins,
		logger:  observability.DiscardLogger(),
		metrics: observability.NoopRecorder{},
		now:     time.Now,
		loc:     time.Local,
		ids:     ids.UUID{},
	}
}

// WithWriteMode selects last-writer-wins or compare-and-swap persistence.
func WithWriteMode(mode WriteMode) Option {
	return func(s *settings) {
		if mode == LastWriterWins || mode == CompareAndSwap {
			s.mode = mode
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder observing every mutation.
func WithMetrics(rec observability.MetricsRecorder) Option {
	return func(s *settings) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used for calendar-day comparisons and for
// interpreting entered dates and times.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDs overrides the identifier generator.
func WithIDs(gen ids.Generator) Option {
	return func(s *settings) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// Workspace owns one loaded document. It is not safe for concurrent use.
type Workspace[T any] struct {
	store *docstore.Store[T]
	owner domain.Owner
	doc   docstore.Document[T]
	cfg   settings
}

// Open reads the owner's document and wraps it in a workspace.
func Open[T any](ctx context.Context, store *docstore.Store[T], owner domain.Owner, opts ...Option) (*Workspace[T], error) {
	if store == nil {
		return nil, errors.New("core: nil document store")
	}
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &Workspace[T]{store: store, owner: owner, cfg: cfg}
	if err := w.Reload(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Reload replaces the in-memory document with the stored one.
func (w *Workspace[T]) Reload(ctx context.Context) error {
	doc, err := w.store.Read(ctx, w.owner)
	if err != nil {
		return err
	}
	w.doc = doc
	return nil
}

// Owner returns the user the workspace belongs to.
func (w *Workspace[T]) Owner() domain.Owner { return w.owner }

// Key returns the storage key of the document.
func (w *Workspace[T]) Key() string { return w.doc.Key }

// Revision returns the storage revision the document was last read or
// written at.
func (w *Workspace[T]) Revision() string { return w.doc.Revision }

// WriteMode returns the configured persistence mode.
func (w *Workspace[T]) WriteMode() WriteMode { return w.cfg.mode }

// Snapshot returns a deep copy of the current document.
func (w *Workspace[T]) Snapshot() (T, error) {
	out, err := clone(w.doc.Data)
	if err != nil {
		return out, fmt.Errorf("core: snapshot %s: %w", w.doc.Key, err)
	}
	return out, nil
}

// view is Snapshot for the read-only queries of this package. A document
// that cannot be copied is logged and reads as empty.
func (w *Workspace[T]) view() T {
	out, err := w.Snapshot()
	if err != nil {
		w.cfg.logger.Error("document unreadable", "key", w.doc.Key, "error", err)
		var zero T
		return zero
	}
	return out
}

// data exposes the live document to read-only queries in this package.
func (w *Workspace[T]) data() *T { return &w.doc.Data }

// Save writes the current document back without mutating it.
func (w *Workspace[T]) Save(ctx context.Context) error { return w.persist(ctx) }

// Mutate applies fn to a copy of the document. If fn fails, or leaves the
// copy in a state that cannot be encoded, the document is left unchanged;
// otherwise the copy replaces it and is written back. A write failure is
// returned as a *SaveError and does not roll back the change.
func (w *Workspace[T]) Mutate(ctx context.Context, op string, fn func(*T) error) (err error) {
	defer observability.Since(ctx, w.cfg.metrics, op, time.Now(), &err)
	working, err := clone(w.doc.Data)
	if err != nil {
		return fmt.Errorf("core: %s: %w", op, err)
	}
	if err := fn(&working); err != nil {
		w.logRejection(op, err)
		return err
	}
	if _, err := json.Marshal(working); err != nil {
		w.cfg.logger.Warn("mutation produced an unencodable document", "op", op, "error", err)
		return fmt.Errorf("core: %s: %w", op, err)
	}
	w.doc.Data = working
	return w.persist(ctx)
}

func (w *Workspace[T]) persist(ctx context.Context) error {
	var err error
	if w.cfg.mode == CompareAndSwap {
		err = w.store.WriteIfUnchanged(ctx, &w.doc)
	} else {
		err = w.store.Write(ctx, &w.doc)
	}
	if err != nil {
		w.cfg.logger.Error("document not saved", "key", w.doc.Key, "mode", w.cfg.mode, "error", err)
		return &SaveError{Key: w.doc.Key, Err: err}
	}
	return nil
}

func (w *Workspace[T]) logRejection(op string, err error) {
	var nf ErrNotFound
	switch {
	case errors.As(err, &nf):
		w.cfg.logger.Warn("entity not found", "op", op, "entity", nf.Entity, "id", nf.ID)
	case errors.Is(err, ErrInvalidTransition):
		w.cfg.logger.Warn("status change rejected", "op", op, "error", err)
	default:
		w.cfg.logger.Debug("mutation rejected", "op", op, "error", err)
	}
}

func (w *Workspace[T]) now() time.Time { return w.cfg.now().In(w.cfg.loc) }

func (w *Workspace[T]) newID(prefix string) string { return w.cfg.ids.NewID(prefix) }

func clone[T any](v T) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
