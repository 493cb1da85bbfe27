package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"

	"golang.org/x/sync/errgroup"
)

var ErrJournalDisabled = errors.New("transition journal is not configured")

// profileFetchLimit bounds concurrent profile reads in History
const profileFetchLimit = 4

// RentalView is a rental joined with the records shown next to it.
// Car and Renter are nil when the referenced record could not be found.
type RentalView struct {
	Rental    domain.Rental
	Car       *domain.Car
	Renter    *domain.User
	Remaining *domain.Countdown
}

// ReconcileReport summarises one availability reconciliation pass
type ReconcileReport struct {
	CarsChecked   int
	Freed         []int32
	Failed        map[int32]error
	JournalSynced int64
}

// StatusMessage is the notice shown after an admin changes a rental's status
func StatusMessage(status domain.RentalStatus) string {
	switch status {
	case domain.RentalStatusFinished:
		return "Order completed"
	case domain.RentalStatusCancelled:
		return "Order cancelled"
	default:
		return "Status updated"
	}
}

type rentalService struct {
	rentalRepo repository.RentalRepository
	carRepo    repository.CarRepository
	userRepo   repository.UserRepository
	journal    repository.TransitionRepository
	now        func() time.Time
}

// NewRentalService wires the coordinator. journal may be nil.
func NewRentalService(
	rentalRepo repository.RentalRepository,
	carRepo repository.CarRepository,
	userRepo repository.UserRepository,
	journal repository.TransitionRepository,
) RentalService {
	return &rentalService{
		rentalRepo: rentalRepo,
		carRepo:    carRepo,
		userRepo:   userRepo,
		journal:    journal,
		now:        time.Now,
	}
}

// Transition applies an admin status change. Moves outside the state machine
// are refused locally and leave rental untouched. On a terminal status the
// car is released on a best-effort basis: a failed release is logged and
// journaled, never returned.
func (s *rentalService) Transition(ctx context.Context, sess *session.Session, rental *domain.Rental, target domain.RentalStatus) (*domain.Rental, error) {
	if rental == nil {
		return nil, &domain.ValidationError{Reason: domain.ReasonInvalidInput, Message: "no rental selected"}
	}
	logger.EnterMethod("rentalService.Transition", "rentalID", rental.ID, "from", rental.Status, "to", target)

	from := rental.Status
	if !from.CanTransitionTo(target) {
		err := &domain.ValidationError{
			Reason:  domain.ReasonInvalidTransition,
			Message: fmt.Sprintf("rental %d cannot move from %s to %s", rental.ID, from, target),
		}
		logger.ExitMethodWithError("rentalService.Transition", err, "rentalID", rental.ID)
		return nil, err
	}

	updated, err := s.rentalRepo.UpdateStatus(ctx, sess, rental.ID, target)
	if err != nil {
		logger.ExitMethodWithError("rentalService.Transition", err, "rentalID", rental.ID)
		return nil, err
	}
	// An empty or foreign body must not overwrite the caller's record.
	if updated != nil && updated.ID == rental.ID {
		*rental = *updated
	} else {
		logger.Warn("Status update returned no rental, keeping local copy", "rentalID", rental.ID)
		rental.Status = target
	}

	entry := &domain.Transition{
		RentalID:           rental.ID,
		CarID:              rental.CarID,
		FromStatus:         from,
		ToStatus:           target,
		ActorID:            sess.UserID(),
		AvailabilitySynced: true,
		CreatedOn:          s.now().UTC(),
	}
	if target.IsTerminal() {
		if _, err := s.carRepo.SetAvailability(ctx, sess, rental.CarID, true); err != nil {
			logger.Warn("Failed to release car after rental closed",
				"rentalID", rental.ID, "carID", rental.CarID, "status", target, "error", err)
			entry.AvailabilitySynced = false
			entry.SyncError = err.Error()
		} else {
			syncedOn := entry.CreatedOn
			entry.SyncedOn = &syncedOn
		}
	}
	s.record(ctx, entry)

	logger.ExitMethod("rentalService.Transition", "rentalID", rental.ID, "status", rental.Status, "carReleased", entry.AvailabilitySynced)
	return rental, nil
}

func (s *rentalService) record(ctx context.Context, entry *domain.Transition) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Create(ctx, entry); err != nil {
		logger.Warn("Failed to journal rental transition", "rentalID", entry.RentalID, "error", err)
	}
}

// ApplyAction resolves an admin action name (accept, decline, finish) against
// the current server copy of the rental and transitions it.
func (s *rentalService) ApplyAction(ctx context.Context, sess *session.Session, rentalID int32, action string) (*domain.Rental, error) {
	target, err := domain.StatusForAction(action)
	if err != nil {
		return nil, &domain.ValidationError{Reason: domain.ReasonInvalidInput, Message: err.Error()}
	}
	rentals, err := s.rentalRepo.ListAll(ctx, sess)
	if err != nil {
		return nil, err
	}
	for i := range rentals {
		if rentals[i].ID == rentalID {
			return s.Transition(ctx, sess, &rentals[i], target)
		}
	}
	return nil, &domain.RemoteError{StatusCode: http.StatusNotFound, Detail: fmt.Sprintf("rental %d not found", rentalID)}
}

// MyRentals lists the customer's rentals newest first, joined with their cars
func (s *rentalService) MyRentals(ctx context.Context, sess *session.Session) ([]RentalView, error) {
	rentals, cars, err := s.fetchRentalsAndCars(ctx, sess, s.rentalRepo.ListMine)
	if err != nil {
		return nil, err
	}
	return s.buildViews(rentals, cars, nil), nil
}

// History is the admin view of every rental with car and renter details.
// A renter whose profile cannot be read is shown without one.
func (s *rentalService) History(ctx context.Context, sess *session.Session) ([]RentalView, error) {
	logger.EnterMethod("rentalService.History")
	rentals, cars, err := s.fetchRentalsAndCars(ctx, sess, s.rentalRepo.ListAll)
	if err != nil {
		logger.ExitMethodWithError("rentalService.History", err)
		return nil, err
	}

	users := s.fetchRenters(ctx, sess, rentals)
	views := s.buildViews(rentals, cars, users)
	logger.ExitMethod("rentalService.History", "rentals", len(views), "renters", len(users))
	return views, nil
}

func (s *rentalService) fetchRentalsAndCars(
	ctx context.Context,
	sess *session.Session,
	list func(context.Context, *session.Session) ([]domain.Rental, error),
) ([]domain.Rental, []domain.Car, error) {
	var rentals []domain.Rental
	var cars []domain.Car

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rentals, err = list(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		cars, err = s.carRepo.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rentals, cars, nil
}

func (s *rentalService) fetchRenters(ctx context.Context, sess *session.Session, rentals []domain.Rental) map[int32]*domain.User {
	seen := make(map[int32]bool)
	var ids []int32
	for _, r := range rentals {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}

	var mu sync.Mutex
	users := make(map[int32]*domain.User, len(ids))
	var g errgroup.Group
	g.SetLimit(profileFetchLimit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			u, err := s.userRepo.GetByID(ctx, sess, id)
			if err != nil {
				logger.Warn("Failed to load renter profile", "userID", id, "error", err)
				return nil
			}
			mu.Lock()
			users[id] = u
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return users
}

func (s *rentalService) buildViews(rentals []domain.Rental, cars []domain.Car, users map[int32]*domain.User) []RentalView {
	carIdx := domain.CarIndex(cars)
	now := s.now()

	views := make([]RentalView, 0, len(rentals))
	for _, r := range rentals {
		v := RentalView{Rental: r, Car: carIdx[r.CarID], Renter: users[r.UserID]}
		if r.Status == domain.RentalStatusOngoing {
			left := r.Remaining(now)
			v.Remaining = &left
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Rental.ID > views[j].Rental.ID })
	return views
}

func (s *rentalService) RecentTransitions(ctx context.Context, limit int) ([]domain.Transition, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.ListRecent(ctx, limit)
}

// ReconcileAvailability retries the car releases that failed when a rental
// closed. Only cars with an unsynced journal entry are touched, so a car an
// admin took out of service by hand stays unavailable.
func (s *rentalService) ReconcileAvailability(ctx context.Context, sess *session.Session) (*ReconcileReport, error) {
	logger.EnterMethod("rentalService.ReconcileAvailability")
	if s.journal == nil {
		logger.ExitMethodWithError("rentalService.ReconcileAvailability", ErrJournalDisabled)
		return nil, ErrJournalDisabled
	}

	pending, err := s.journal.ListUnsynced(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read unsynced transitions: %w", err)
		logger.ExitMethodWithError("rentalService.ReconcileAvailability", err)
		return nil, err
	}
	report := &ReconcileReport{Failed: make(map[int32]error)}
	if len(pending) == 0 {
		logger.ExitMethod("rentalService.ReconcileAvailability", "carsChecked", 0)
		return report, nil
	}

	rentals, cars, err := s.fetchRentalsAndCars(ctx, sess, s.rentalRepo.ListAll)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ReconcileAvailability", err)
		return nil, err
	}
	open := make(map[int32]bool)
	for _, r := range rentals {
		if r.Status.IsActive() {
			open[r.CarID] = true
		}
	}
	index := domain.CarIndex(cars)

	seen := make(map[int32]bool)
	for _, t := range pending {
		if seen[t.CarID] {
			continue
		}
		seen[t.CarID] = true
		report.CarsChecked++

		// A deleted car, one already released, or one booked again has
		// nothing left to release.
		car := index[t.CarID]
		if car != nil && !car.Available && !open[t.CarID] {
			if _, err := s.carRepo.SetAvailability(ctx, sess, t.CarID, true); err != nil {
				logger.Warn("Failed to release car during reconciliation", "carID", t.CarID, "error", err)
				report.Failed[t.CarID] = err
				continue
			}
			report.Freed = append(report.Freed, t.CarID)
		}

		n, err := s.journal.MarkSyncedByCar(ctx, t.CarID)
		if err != nil {
			logger.Warn("Failed to mark transitions synced", "carID", t.CarID, "error", err)
			continue
		}
		report.JournalSynced += n
	}

	logger.ExitMethod("rentalService.ReconcileAvailability",
		"carsChecked", report.CarsChecked, "freed", len(report.Freed), "failed", len(report.Failed), "journalSynced", report.JournalSynced)
	return report, nil
}
