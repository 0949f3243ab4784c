// Package sqlkv implements the key-value contract on a single database/sql
// table. The sqlite and postgres drivers wrap it with their dialects.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ethicure/internal/kv/core"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	// Driver is reported by Store.Driver.
	Driver core.Driver
	// BlobType is the column type used for payloads (BLOB, BYTEA).
	BlobType string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// QuestionPlaceholders renders `?` parameters (SQLite).
func QuestionPlaceholders(int) string { return "?" }

// DollarPlaceholders renders `$n` parameters (Postgres).
func DollarPlaceholders(n int) string { return "$" + strconv.Itoa(n) }

// Store persists entries in a table (key, payload, revision, updated_at).
// Revisions are integers incremented by every write to a key.
type Store struct {
	db      *sql.DB
	table   string
	dialect Dialect
	now     func() time.Time
}

// New wraps db and ensures the table exists.
func New(ctx context.Context, db *sql.DB, table string, dialect Dialect) (*Store, error) {
	if table == "" {
		table = "kv_entries"
	}
	s := &Store{db: db, table: table, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the dialect's driver identifier.
func (s *Store) Driver() core.Driver { return s.dialect.Driver }

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		payload %s NOT NULL,
		revision BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`, s.table, s.dialect.BlobType)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

// bind rewrites `?` markers into the dialect's placeholders.
func (s *Store) bind(query string) string {
	if s.dialect.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Get loads one row.
func (s *Store) Get(ctx context.Context, key string) (core.Entry, bool, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, false, core.ErrEmptyKey
	}
	var (
		payload  []byte
		revision int64
		updated  int64
	)
	row := s.db.QueryRowContext(ctx, s.bind(fmt.Sprintf(`SELECT payload, revision, updated_at FROM %s WHERE key = ?`, s.table)), key)
	if err := row.Scan(&payload, &revision, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, false, nil
		}
		return core.Entry{}, false, fmt.Errorf("select %s: %w", key, err)
	}
	return core.Entry{
		Key:       key,
		Value:     payload,
		Revision:  strconv.FormatInt(revision, 10),
		Size:      int64(len(payload)),
		UpdatedAt: time.Unix(0, updated).UTC(),
	}, true, nil
}

// Set upserts the row. Revisions are write times in nanoseconds, bumped past
// the previous revision when the clock has not advanced, so a key deleted and
// written again never repeats a revision.
func (s *Store) Set(ctx context.Context, key string, value []byte) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	now := s.now()
	query := fmt.Sprintf(`INSERT INTO %[1]s(key, payload, revision, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload,
			revision = CASE WHEN excluded.revision > %[1]s.revision THEN excluded.revision ELSE %[1]s.revision + 1 END,
			updated_at = excluded.updated_at
		RETURNING revision`, s.table)
	var revision int64
	if err := s.db.QueryRowContext(ctx, s.bind(query), key, value, now.UnixNano(), now.UnixNano()).Scan(&revision); err != nil {
		return core.Entry{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	return s.entry(key, value, revision, now), nil
}

// CompareAndSet inserts when expected is empty, otherwise updates the row
// only if its revision still equals expected.
func (s *Store) CompareAndSet(ctx context.Context, key, expected string, value []byte) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	now := s.now()
	if expected == "" {
		query := fmt.Sprintf(`INSERT INTO %s(key, payload, revision, updated_at) VALUES(?, ?, ?, ?) ON CONFLICT(key) DO NOTHING`, s.table)
		res, err := s.db.ExecContext(ctx, s.bind(query), key, value, now.UnixNano(), now.UnixNano())
		if err != nil {
			return core.Entry{}, fmt.Errorf("insert %s: %w", key, err)
		}
		if err := requireOneRow(res); err != nil {
			return core.Entry{}, err
		}
		return s.entry(key, value, now.UnixNano(), now), nil
	}
	want, err := strconv.ParseInt(expected, 10, 64)
	if err != nil {
		return core.Entry{}, core.ErrConflict
	}
	next := nextRevision(want, now)
	query := fmt.Sprintf(`UPDATE %s SET payload = ?, revision = ?, updated_at = ? WHERE key = ? AND revision = ?`, s.table)
	res, err := s.db.ExecContext(ctx, s.bind(query), value, next, now.UnixNano(), key, want)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update %s: %w", key, err)
	}
	if err := requireOneRow(res); err != nil {
		return core.Entry{}, err
	}
	return s.entry(key, value, next, now), nil
}

func nextRevision(prev int64, now time.Time) int64 {
	if next := now.UnixNano(); next > prev {
		return next
	}
	return prev + 1
}

// Delete removes the row.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.bind(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table)), key)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns row metadata ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(fmt.Sprintf(`SELECT key, length(payload), revision, updated_at FROM %s`, s.table)))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Entry
	for rows.Next() {
		var (
			key      string
			size     int64
			revision int64
			updated  int64
		)
		if err := rows.Scan(&key, &size, &revision, &updated); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, core.Entry{Key: key, Revision: strconv.FormatInt(revision, 10), Size: size, UpdatedAt: time.Unix(0, updated).UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// byte order, independent of the database collation
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) entry(key string, value []byte, revision int64, at time.Time) core.Entry {
	return core.Entry{Key: key, Revision: strconv.FormatInt(revision, 10), Size: int64(len(value)), UpdatedAt: at}
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrConflict
	}
	return nil
}
