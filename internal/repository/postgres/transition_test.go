package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"car-rental-client/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestTransitionRepository_Create(t *testing.T) {
	store, mock := newMockDB(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		tr := &domain.Transition{
			RentalID:   10,
			CarID:      3,
			FromStatus: domain.RentalStatusOngoing,
			ToStatus:   domain.RentalStatusFinished,
			ActorID:    1,
			SyncError:  "Network error: cannot connect to server",
		}

		mock.ExpectQuery("INSERT INTO rental_transitions").
			WithArgs(int32(10), int32(3), "ongoing", "finished", int32(1), false, tr.SyncError, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		err := store.Create(ctx, tr)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), tr.ID)
		assert.False(t, tr.CreatedOn.IsZero())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO rental_transitions").WillReturnError(errors.New("connection reset"))
		err := store.Create(ctx, &domain.Transition{RentalID: 1})
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRepository_ListUnsynced(t *testing.T) {
	store, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "rental_id", "car_id", "from_status", "to_status", "actor_id", "availability_synced", "sync_error", "created_on", "synced_on"}).
		AddRow(int64(1), int32(10), int32(3), "pending", "cancelled", int32(1), false, "timeout", now, nil).
		AddRow(int64(2), int32(11), int32(4), "ongoing", "finished", int32(1), false, "timeout", now, nil)
	mock.ExpectQuery("SELECT (.+) FROM rental_transitions WHERE NOT availability_synced").WillReturnRows(rows)

	out, err := store.ListUnsynced(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.RentalStatusCancelled, out[0].ToStatus)
	assert.Nil(t, out[0].SyncedOn)
	assert.Equal(t, int32(4), out[1].CarID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRepository_MarkSyncedByCar(t *testing.T) {
	store, mock := newMockDB(t)

	mock.ExpectExec("UPDATE rental_transitions SET availability_synced = TRUE").
		WithArgs(sqlmock.AnyArg(), int32(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.MarkSyncedByCar(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRepository_ListRecent(t *testing.T) {
	store, mock := newMockDB(t)
	synced := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "rental_id", "car_id", "from_status", "to_status", "actor_id", "availability_synced", "sync_error", "created_on", "synced_on"}).
		AddRow(int64(9), int32(12), int32(5), "pending", "ongoing", int32(1), true, "", synced, synced)
	mock.ExpectQuery("SELECT (.+) FROM rental_transitions ORDER BY created_on DESC").
		WithArgs(20).
		WillReturnRows(rows)

	out, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].SyncedOn)
	assert.True(t, out[0].AvailabilitySynced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureSchema(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rental_transitions").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
