package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ethicure/internal/docstore"
	"ethicure/internal/kv"
	"ethicure/pkg/domain"
)

// Tuesday mid-morning, far enough from midnight that hour offsets in the
// default documents stay on the same day.
var testNow = time.Date(2026, 4, 14, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testOptions(extra ...Option) []Option {
	return append([]Option{
		WithClock(testClock),
		WithLocation(time.UTC),
		WithIDs(&testIDs{}),
	}, extra...)
}

func newDocStore[T any](t *testing.T, store kv.Store, schema docstore.Schema[T]) *docstore.Store[T] {
	t.Helper()
	s, err := docstore.New(store, schema, docstore.WithClock(testClock))
	require.NoError(t, err)
	return s
}

// testIDs mints ids that never collide with the seeded ones.
type testIDs struct{ n int }

func (g *testIDs) NewID(prefix string) string {
	g.n++
	return fmt.Sprintf("%s-new-%d", prefix, g.n)
}

func (g *testIDs) PatientID() string {
	g.n++
	return fmt.Sprintf("PAT-%06d", g.n)
}

var testOwner = domain.Owner{Username: "tester", FirstName: "Test", LastName: "User"}

func openAdmin(t *testing.T, store kv.Store, extra ...Option) *Admin {
	t.Helper()
	a, err := OpenAdmin(context.Background(), newDocStore(t, store, AdminSchema()), testOwner, testOptions(extra...)...)
	require.NoError(t, err)
	return a
}

func openDoctor(t *testing.T, store kv.Store, extra ...Option) *Doctor {
	t.Helper()
	d, err := OpenDoctor(context.Background(), newDocStore(t, store, DoctorSchema()), testOwner, testOptions(extra...)...)
	require.NoError(t, err)
	return d
}

func openPatient(t *testing.T, store kv.Store, extra ...Option) *Patient {
	t.Helper()
	p, err := OpenPatient(context.Background(), newDocStore(t, store, PatientSchema()), testOwner, testOptions(extra...)...)
	require.NoError(t, err)
	return p
}

func openPharmacist(t *testing.T, store kv.Store, extra ...Option) *Pharmacist {
	t.Helper()
	p, err := OpenPharmacist(context.Background(), newDocStore(t, store, PharmacistSchema()), testOwner, testOptions(extra...)...)
	require.NoError(t, err)
	return p
}

func openStaff(t *testing.T, store kv.Store, extra ...Option) *Staff {
	t.Helper()
	s, err := OpenStaff(context.Background(), newDocStore(t, store, StaffSchema()), testOwner, testOptions(extra...)...)
	require.NoError(t, err)
	return s
}

var errDiskFull = errors.New("disk full")

// failingStore rejects writes while fail is set.
type failingStore struct {
	kv.Store
	fail bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) (kv.Entry, error) {
	if f.fail {
		return kv.Entry{}, errDiskFull
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) CompareAndSet(ctx context.Context, key, expected string, value []byte) (kv.Entry, error) {
	if f.fail {
		return kv.Entry{}, errDiskFull
	}
	return f.Store.CompareAndSet(ctx, key, expected, value)
}

func requireNotFound(t *testing.T, err error, entity domain.EntityType, id string) {
	t.Helper()
	var nf ErrNotFound
	require.True(t, errors.As(err, &nf), "expected ErrNotFound, got %v", err)
	require.Equal(t, entity, nf.Entity)
	require.Equal(t, id, nf.ID)
}

func snapshot[T any](t *testing.T, w *Workspace[T]) T {
	t.Helper()
	doc, err := w.Snapshot()
	require.NoError(t, err)
	return doc
}
