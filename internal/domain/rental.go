package domain

import (
	"fmt"
	"time"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusOngoing   RentalStatus = "ongoing"
	RentalStatusFinished  RentalStatus = "finished"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// validTransitions lists the admin moves allowed out of each status.
// finished and cancelled have no entry and are therefore terminal.
var validTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusPending: {RentalStatusOngoing, RentalStatusCancelled},
	RentalStatusOngoing: {RentalStatusFinished},
}

var actionLabels = map[RentalStatus]string{
	RentalStatusOngoing:   "Accept",
	RentalStatusCancelled: "Decline",
	RentalStatusFinished:  "Finish",
}

func (s RentalStatus) IsValid() bool {
	switch s {
	case RentalStatusPending, RentalStatusOngoing, RentalStatusFinished, RentalStatusCancelled:
		return true
	}
	return false
}

func (s RentalStatus) CanTransitionTo(target RentalStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusFinished || s == RentalStatusCancelled
}

// IsActive is true while the rental still holds its car
func (s RentalStatus) IsActive() bool {
	return s == RentalStatusPending || s == RentalStatusOngoing
}

// NextStatuses returns the targets an admin may pick from s
func (s RentalStatus) NextStatuses() []RentalStatus {
	return append([]RentalStatus(nil), validTransitions[s]...)
}

// ActionLabel is the admin button text that moves a rental into s
func (s RentalStatus) ActionLabel() string {
	return actionLabels[s]
}

func ParseRentalStatus(s string) (RentalStatus, error) {
	status := RentalStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid rental status: %s", s)
	}
	return status, nil
}

// StatusForAction maps accept/decline/finish to the target status
func StatusForAction(action string) (RentalStatus, error) {
	switch action {
	case "accept":
		return RentalStatusOngoing, nil
	case "decline":
		return RentalStatusCancelled, nil
	case "finish":
		return RentalStatusFinished, nil
	}
	return "", fmt.Errorf("unknown rental action: %s", action)
}

type Rental struct {
	ID         int32        `json:"id"`
	UserID     int32        `json:"user_id"`
	CarID      int32        `json:"car_id"`
	StartDate  Timestamp    `json:"start_date"`
	EndDate    Timestamp    `json:"end_date"`
	TotalPrice float64      `json:"total_price"`
	Status     RentalStatus `json:"status"`
}

// Remaining is the countdown shown next to an ongoing rental
func (r *Rental) Remaining(now time.Time) Countdown {
	return NewCountdown(r.EndDate.Sub(now))
}

type CreateRentalRequest struct {
	CarID     int32  `json:"car_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type StatusUpdate struct {
	Status RentalStatus `json:"status"`
}

// Countdown splits a duration into whole days, hours, minutes and seconds
type Countdown struct {
	Total   time.Duration
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

func NewCountdown(d time.Duration) Countdown {
	if d <= 0 {
		return Countdown{Total: d}
	}
	secs := int64(d / time.Second)
	return Countdown{
		Total:   d,
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}

func (c Countdown) Expired() bool {
	return c.Total <= 0
}

func (c Countdown) String() string {
	if c.Expired() {
		return "time is up"
	}
	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}
