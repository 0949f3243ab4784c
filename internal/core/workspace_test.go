package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethicure/internal/kv"
	"ethicure/internal/observability"
	"ethicure/pkg/domain"
)

func TestOpenRejectsNilStore(t *testing.T) {
	_, err := Open[domain.StaffDocument](context.Background(), nil, testOwner)
	require.Error(t, err)
}

func TestMutateFailureLeavesDocumentUnchanged(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := openStaff(t, store)
	before := snapshot(t, s.Workspace)

	boom := errors.New("boom")
	err := s.Mutate(ctx, "test.partial", func(doc *domain.StaffDocument) error {
		doc.Visits = nil
		doc.Actions = append(doc.Actions, "half done")
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, snapshot(t, s.Workspace))

	_, found, err := store.Get(ctx, s.Key())
	require.NoError(t, err)
	assert.False(t, found, "a rejected mutation writes nothing")
}

func TestSnapshotIsDetached(t *testing.T) {
	s := openStaff(t, kv.NewMemory())
	snap := snapshot(t, s.Workspace)
	snap.Visits[0].Doctor = "changed"
	snap.Actions = nil
	again := snapshot(t, s.Workspace)
	assert.Equal(t, "Dr. Riya Sen", again.Visits[0].Doctor)
	assert.NotEmpty(t, again.Actions)
}

func TestMutationPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := openStaff(t, store)
	require.NoError(t, s.MarkBillPaid(ctx, "bill-1"))
	assert.NotEmpty(t, s.Revision())

	other := openStaff(t, store)
	assert.Equal(t, snapshot(t, s.Workspace), snapshot(t, other.Workspace))
	assert.Equal(t, s.Revision(), other.Revision())
}

func TestSaveFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: kv.NewMemory(), fail: true}
	s := openStaff(t, store)

	err := s.RemoveBill(ctx, "bill-1")
	require.ErrorIs(t, err, ErrUnsaved)
	require.ErrorIs(t, err, errDiskFull)
	var se *SaveError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "app:staff:tester", se.Key)

	assert.Len(t, snapshot(t, s.Workspace).Billing, 1, "in-memory state stays authoritative")

	store.fail = false
	require.NoError(t, s.Save(ctx))
	fresh := openStaff(t, store)
	assert.Len(t, snapshot(t, fresh.Workspace).Billing, 1)
}

func TestLastWriterWinsOverwrites(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	first := openStaff(t, store)
	second := openStaff(t, store)
	assert.Equal(t, LastWriterWins, first.WriteMode())

	require.NoError(t, first.RemoveBill(ctx, "bill-1"))
	require.NoError(t, second.RemoveBill(ctx, "bill-2"))

	fresh := openStaff(t, store)
	billing := snapshot(t, fresh.Workspace).Billing
	require.Len(t, billing, 1)
	assert.Equal(t, "bill-1", billing[0].ID, "the first tab's removal was overwritten")
}

func TestCompareAndSwapDetectsConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	first := openStaff(t, store, WithWriteMode(CompareAndSwap))
	second := openStaff(t, store, WithWriteMode(CompareAndSwap))

	require.NoError(t, first.RemoveBill(ctx, "bill-1"))
	err := second.RemoveBill(ctx, "bill-2")
	require.ErrorIs(t, err, kv.ErrConflict)
	require.ErrorIs(t, err, ErrUnsaved)

	require.NoError(t, second.Reload(ctx))
	require.NoError(t, second.RemoveBill(ctx, "bill-2"))

	fresh := openStaff(t, store)
	assert.Empty(t, snapshot(t, fresh.Workspace).Billing)
}

func TestUnknownWriteModeKeepsDefault(t *testing.T) {
	s := openStaff(t, kv.NewMemory(), WithWriteMode("optimistic"))
	assert.Equal(t, LastWriterWins, s.WriteMode())
}

func TestMutationsAreObserved(t *testing.T) {
	ctx := context.Background()
	rec := observability.NewExpvarMetricsRecorder("")
	s := openStaff(t, kv.NewMemory(), WithMetrics(rec))
	require.NoError(t, s.MarkBillPaid(ctx, "bill-1"))
	requireNotFound(t, s.MarkBillPaid(ctx, "bill-404"), domain.EntityBill, "bill-404")

	results := rec.Snapshot().Results["staff.mark_bill_paid"]
	assert.Equal(t, int64(1), results["success"])
	assert.Equal(t, int64(1), results["error"])
}

func TestUpdateRejectsIDChange(t *testing.T) {
	a := openAdmin(t, kv.NewMemory())
	_, err := a.UpdateDoctor(context.Background(), "doc-1", func(d *domain.Doctor) { d.ID = "doc-9" })
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "doc-1", snapshot(t, a.Workspace).Doctors[0].ID)
}

func TestRemoveUnknownIDIsNotFound(t *testing.T) {
	items := []domain.Bill{{ID: "a"}, {ID: "b"}}
	out, err := remove(items, domain.EntityBill, "c")
	requireNotFound(t, err, domain.EntityBill, "c")
	assert.Equal(t, items, out)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "bill c not found", err.Error())
}

func TestUnencodableMutationIsRejected(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := openAdmin(t, store)
	before := snapshot(t, a.Workspace)

	err := a.Mutate(ctx, "test.nan", func(doc *domain.AdminDocument) error {
		doc.Medicines[0].Price = math.NaN()
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsaved)
	assert.Equal(t, before, snapshot(t, a.Workspace))
	_, found, err := store.Get(ctx, a.Key())
	require.NoError(t, err)
	assert.False(t, found)

	unread := len(a.UnreadNotifications())
	require.NoError(t, a.MarkNotificationRead(ctx, before.Notifications[0].ID))
	assert.Len(t, a.UnreadNotifications(), unread-1)
}

func TestUndecodableFieldSurvivesMutations(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	key := "app:staff:" + testOwner.Username
	billing := `[{"id":"bill-9","patient":"Ravi Kumar","amount":"1200","status":"pending"}]`
	_, err := store.Set(ctx, key, []byte(`{"billing":`+billing+`}`))
	require.NoError(t, err)

	s := openStaff(t, store)
	_, err = s.CheckInPatient(ctx, CheckIn{Name: "Asha Rao", Doctor: "Dr. Riya Sen", Time: "11:30"})
	require.NoError(t, err)

	entry, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, string(entry.Value), `"bill-9"`)
	assert.Contains(t, string(entry.Value), `"Asha"`)
}
