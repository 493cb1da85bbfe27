// Package postgres holds the local transition journal. The rental API
// remains the system of record; this database only tracks admin status
// changes and whether the follow-up car release reached the server.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS rental_transitions (
	id                  BIGSERIAL PRIMARY KEY,
	rental_id           INTEGER NOT NULL,
	car_id              INTEGER NOT NULL,
	from_status         VARCHAR(20) NOT NULL,
	to_status           VARCHAR(20) NOT NULL,
	actor_id            INTEGER NOT NULL,
	availability_synced BOOLEAN NOT NULL DEFAULT FALSE,
	sync_error          TEXT NOT NULL DEFAULT '',
	created_on          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	synced_on           TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_rental_transitions_unsynced
	ON rental_transitions (car_id) WHERE NOT availability_synced;
`

type Store struct {
	db *sql.DB
	repository.TransitionRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                   db,
		TransitionRepository: NewTransitionRepository(db),
	}
}

// Open connects and pings the database
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the journal table if it does not exist yet
func (s *Store) EnsureSchema(ctx context.Context) error {
	logger.DatabaseCall("CREATE", "rental_transitions")
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("CREATE", 0, err)
	if err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}
