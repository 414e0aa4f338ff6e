package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bybuy30/leave-tracker/auth"
	"github.com/bybuy30/leave-tracker/calendar"
	"github.com/bybuy30/leave-tracker/ledger"
	"github.com/bybuy30/leave-tracker/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "leave.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newEmployee(id, name, adminID string) *ledger.Employee {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return &ledger.Employee{
		ID:        id,
		Name:      name,
		AdminID:   adminID,
		Ledger:    *ledger.NewLedger(ledger.DefaultQuotas(), now),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_RoundTripsEmployeeDocument(t *testing.T) {
	// The whole ledger survives the JSON document column, including the
	// date-keyed heatmap.
	store := newTestStore(t)
	ctx := context.Background()

	emp := newEmployee("e1", "Asha", "a1")
	emp.Ledger.Balances[ledger.Sick] = ledger.Balance{Quota: 12, Taken: 3}
	emp.Ledger.Log = append(emp.Ledger.Log, ledger.LogEntry{
		ID: "l1", Type: ledger.Sick,
		StartDate: calendar.MustParseDate("2024-06-07"), Duration: 3,
		Timestamp: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	emp.Ledger.Heatmap = ledger.RebuildHeatmap(emp.Ledger.Log)
	require.NoError(t, store.Create(ctx, emp))

	got, err := store.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, emp.Name, got.Name)
	assert.Equal(t, emp.Ledger.Balances, got.Ledger.Balances)
	assert.Equal(t, emp.Ledger.Log, got.Ledger.Log)
	assert.True(t, got.Ledger.Heatmap.Equal(emp.Ledger.Heatmap))
	assert.NoError(t, got.Ledger.Validate())
}

func TestStore_GetUnknown(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestStore_ListFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newEmployee("e1", "zoe", "a1")))
	require.NoError(t, store.Create(ctx, newEmployee("e2", "Asha", "a1")))
	require.NoError(t, store.Create(ctx, newEmployee("e3", "Mika", "other")))

	out, err := store.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Asha", out[0].Name)
	assert.Equal(t, "zoe", out[1].Name)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newEmployee("e1", "Asha", "a1")))

	require.NoError(t, store.Delete(ctx, "e1"))
	_, err := store.Get(ctx, "e1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "e1"), ledger.ErrNotFound)
}

func TestStore_RunAtomic_PersistsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newEmployee("e1", "Asha", "a1")))

	updated, err := store.RunAtomic(ctx, "e1", func(emp *ledger.Employee) error {
		emp.Ledger.Balances[ledger.Casual] = ledger.Balance{Quota: 12, Taken: 2}
		emp.UpdatedAt = time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Ledger.Balances[ledger.Casual].Taken)

	got, err := store.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Ledger.Balances[ledger.Casual].Taken)
}

func TestStore_RunAtomic_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newEmployee("e1", "Asha", "a1")))

	boom := errors.New("boom")
	_, err := store.RunAtomic(ctx, "e1", func(emp *ledger.Employee) error {
		emp.Ledger.Balances[ledger.Casual] = ledger.Balance{Quota: 12, Taken: 12}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Ledger.Balances[ledger.Casual].Taken)
}

func TestStore_RunAtomic_UnknownEmployee(t *testing.T) {
	store := newTestStore(t)
	_, err := store.RunAtomic(context.Background(), "ghost", func(*ledger.Employee) error {
		return nil
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestStore_Admins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin := &auth.Admin{
		ID: "a1", Email: "hr@example.com", PasswordHash: "hash",
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateAdmin(ctx, admin))
	assert.ErrorIs(t, store.CreateAdmin(ctx, admin), auth.ErrEmailTaken)

	got, err := store.AdminByEmail(ctx, "hr@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, admin.CreatedAt, got.CreatedAt)

	_, err = store.AdminByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestStore_Watch_SeesWrites(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := store.Watch(ctx, "a1")
	require.NoError(t, store.Create(context.Background(), newEmployee("e1", "Asha", "a1")))

	select {
	case ev := <-events:
		assert.Equal(t, ledger.ChangeCreated, ev.Kind)
		assert.Equal(t, "e1", ev.Employee.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}
}
