// Package kvtest holds the behavioural contract every key-value driver must
// satisfy. Driver test packages call RunContract with a fresh store.
package kvtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ethicure/internal/kv/core"
)

// RunContract exercises get/set/compare-and-set/delete/list on store. Keys
// are namespaced per run so shared backends can be reused.
func RunContract(t *testing.T, store core.Store) {
	t.Helper()
	ns := fmt.Sprintf("kvtest-%d:", time.Now().UnixNano())
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, found, err := store.Get(ctx, ns+"missing")
		if err != nil {
			t.Fatalf("get missing: %v", err)
		}
		if found {
			t.Fatalf("expected missing key to be absent")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		if _, err := store.Set(ctx, "  ", []byte("x")); !errors.Is(err, core.ErrEmptyKey) {
			t.Fatalf("expected ErrEmptyKey, got %v", err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		key := ns + "roundtrip"
		first, err := store.Set(ctx, key, []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("set: %v", err)
		}
		if first.Revision == "" {
			t.Fatalf("expected revision after set")
		}
		got, found, err := store.Get(ctx, key)
		if err != nil || !found {
			t.Fatalf("get: found=%v err=%v", found, err)
		}
		if !bytes.Equal(got.Value, []byte(`{"a":1}`)) {
			t.Fatalf("unexpected value %q", got.Value)
		}
		if got.Revision != first.Revision {
			t.Fatalf("revision mismatch: set %q get %q", first.Revision, got.Revision)
		}
		second, err := store.Set(ctx, key, []byte(`{"a":2}`))
		if err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		if second.Revision == first.Revision {
			t.Fatalf("expected overwrite to change revision")
		}
	})

	t.Run("compare and set", func(t *testing.T) {
		key := ns + "cas"
		if _, err := store.CompareAndSet(ctx, key, "0", []byte("x")); !errors.Is(err, core.ErrConflict) {
			t.Fatalf("expected conflict for revision on absent key, got %v", err)
		}
		created, err := store.CompareAndSet(ctx, key, "", []byte("v1"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := store.CompareAndSet(ctx, key, "", []byte("v1b")); !errors.Is(err, core.ErrConflict) {
			t.Fatalf("expected conflict for create on existing key, got %v", err)
		}
		updated, err := store.CompareAndSet(ctx, key, created.Revision, []byte("v2"))
		if err != nil {
			t.Fatalf("update with current revision: %v", err)
		}
		if _, err := store.CompareAndSet(ctx, key, created.Revision, []byte("v3")); !errors.Is(err, core.ErrConflict) {
			t.Fatalf("expected conflict for stale revision, got %v", err)
		}
		got, _, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got.Value) != "v2" || got.Revision != updated.Revision {
			t.Fatalf("unexpected state %q rev %q (want v2 rev %q)", got.Value, got.Revision, updated.Revision)
		}
	})

	t.Run("delete", func(t *testing.T) {
		key := ns + "delete"
		if _, err := store.Set(ctx, key, []byte("x")); err != nil {
			t.Fatalf("set: %v", err)
		}
		existed, err := store.Delete(ctx, key)
		if err != nil || !existed {
			t.Fatalf("delete existing: existed=%v err=%v", existed, err)
		}
		existed, err = store.Delete(ctx, key)
		if err != nil || existed {
			t.Fatalf("delete missing: existed=%v err=%v", existed, err)
		}
		if _, found, _ := store.Get(ctx, key); found {
			t.Fatalf("expected key gone after delete")
		}
	})

	t.Run("revision not reused after delete", func(t *testing.T) {
		key := ns + "recreate"
		first, err := store.Set(ctx, key, []byte("before"))
		if err != nil {
			t.Fatalf("set: %v", err)
		}
		if _, err := store.Delete(ctx, key); err != nil {
			t.Fatalf("delete: %v", err)
		}
		second, err := store.CompareAndSet(ctx, key, "", []byte("after"))
		if err != nil {
			t.Fatalf("recreate: %v", err)
		}
		if second.Revision == first.Revision {
			t.Fatalf("revision %s reused after delete", first.Revision)
		}
		if _, err := store.CompareAndSet(ctx, key, first.Revision, []byte("stale")); !errors.Is(err, core.ErrConflict) {
			t.Fatalf("expected conflict for revision from before delete, got %v", err)
		}
		third, err := store.Set(ctx, key, []byte("again"))
		if err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		if third.Revision == first.Revision || third.Revision == second.Revision {
			t.Fatalf("overwrite reused revision %s", third.Revision)
		}
	})

	t.Run("list by prefix", func(t *testing.T) {
		prefix := ns + "list:"
		for _, k := range []string{"b", "a", "c"} {
			if _, err := store.Set(ctx, prefix+k, []byte(k+k)); err != nil {
				t.Fatalf("set %s: %v", k, err)
			}
		}
		if _, err := store.Set(ctx, ns+"other", []byte("zz")); err != nil {
			t.Fatalf("set other: %v", err)
		}
		entries, err := store.List(ctx, prefix)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for i, want := range []string{"a", "b", "c"} {
			if entries[i].Key != prefix+want {
				t.Fatalf("entry %d: expected %s got %s", i, prefix+want, entries[i].Key)
			}
			if entries[i].Size != 2 {
				t.Fatalf("entry %d: expected size 2 got %d", i, entries[i].Size)
			}
		}
	})
}
