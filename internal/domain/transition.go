package domain

import "time"

// Transition is one journal row per status change applied by an admin
type Transition struct {
	ID                 int64        `json:"id"`
	RentalID           int32        `json:"rental_id"`
	CarID              int32        `json:"car_id"`
	FromStatus         RentalStatus `json:"from_status"`
	ToStatus           RentalStatus `json:"to_status"`
	ActorID            int32        `json:"actor_id"`
	AvailabilitySynced bool         `json:"availability_synced"`
	SyncError          string       `json:"sync_error,omitempty"`
	CreatedOn          time.Time    `json:"created_on"`
	SyncedOn           *time.Time   `json:"synced_on,omitempty"`
}
