package postgres

import (
	"context"
	"database/sql"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository"
)

const transitionColumns = `id, rental_id, car_id, from_status, to_status, actor_id, availability_synced, sync_error, created_on, synced_on`

type transitionRepository struct {
	db *sql.DB
}

func NewTransitionRepository(db *sql.DB) repository.TransitionRepository {
	return &transitionRepository{db: db}
}

func (r *transitionRepository) Create(ctx context.Context, t *domain.Transition) error {
	logger.EnterMethod("transitionRepository.Create", "rentalID", t.RentalID, "carID", t.CarID, "toStatus", t.ToStatus)

	if t.CreatedOn.IsZero() {
		t.CreatedOn = time.Now().UTC()
	}
	query := `INSERT INTO rental_transitions (rental_id, car_id, from_status, to_status, actor_id, availability_synced, sync_error, created_on, synced_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	logger.DatabaseCall("INSERT", "rental_transitions", "rentalID", t.RentalID)

	err := r.db.QueryRowContext(ctx, query,
		t.RentalID, t.CarID, string(t.FromStatus), string(t.ToStatus), t.ActorID,
		t.AvailabilitySynced, t.SyncError, t.CreatedOn, t.SyncedOn,
	).Scan(&t.ID)
	logger.DatabaseResult("INSERT", 1, err, "transitionID", t.ID)

	if err != nil {
		logger.ExitMethodWithError("transitionRepository.Create", err, "rentalID", t.RentalID)
	} else {
		logger.ExitMethod("transitionRepository.Create", "transitionID", t.ID)
	}
	return err
}

func (r *transitionRepository) ListUnsynced(ctx context.Context) ([]domain.Transition, error) {
	query := `SELECT ` + transitionColumns + ` FROM rental_transitions
	          WHERE NOT availability_synced ORDER BY id`
	logger.DatabaseCall("SELECT", "rental_transitions", "filter", "unsynced")
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()
	return scanTransitions(rows)
}

// MarkSyncedByCar closes every open entry for the car and returns how many changed
func (r *transitionRepository) MarkSyncedByCar(ctx context.Context, carID int32) (int64, error) {
	query := `UPDATE rental_transitions SET availability_synced = TRUE, sync_error = '', synced_on = $1
	          WHERE car_id = $2 AND NOT availability_synced`
	logger.DatabaseCall("UPDATE", "rental_transitions", "carID", carID)
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), carID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "carID", carID)
		return 0, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "carID", carID)
	return n, err
}

func (r *transitionRepository) ListRecent(ctx context.Context, limit int) ([]domain.Transition, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + transitionColumns + ` FROM rental_transitions
	          ORDER BY created_on DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransitions(rows)
}

func scanTransitions(rows *sql.Rows) ([]domain.Transition, error) {
	var out []domain.Transition
	for rows.Next() {
		var t domain.Transition
		var from, to string
		var syncedOn sql.NullTime
		if err := rows.Scan(&t.ID, &t.RentalID, &t.CarID, &from, &to, &t.ActorID,
			&t.AvailabilitySynced, &t.SyncError, &t.CreatedOn, &syncedOn); err != nil {
			return nil, err
		}
		t.FromStatus = domain.RentalStatus(from)
		t.ToStatus = domain.RentalStatus(to)
		if syncedOn.Valid {
			ts := syncedOn.Time
			t.SyncedOn = &ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
