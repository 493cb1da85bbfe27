package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"car-rental-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRentalService(rentalRepo *MockRentalRepo, carRepo *MockCarRepo, userRepo *MockUserRepo, journal *MockTransitionRepo) *rentalService {
	svc := &rentalService{rentalRepo: rentalRepo, carRepo: carRepo, userRepo: userRepo, now: time.Now}
	if journal != nil {
		svc.journal = journal
	}
	return svc
}

func TestRentalService_Transition(t *testing.T) {
	ctx := context.Background()
	admin := testSession(1, "admin", domain.RoleAdmin)

	t.Run("AcceptDoesNotTouchCar", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, nil)

		rental := &domain.Rental{ID: 10, CarID: 3, Status: domain.RentalStatusPending}
		rentalRepo.On("UpdateStatus", ctx, admin, int32(10), domain.RentalStatusOngoing).
			Return(&domain.Rental{ID: 10, CarID: 3, Status: domain.RentalStatusOngoing, TotalPrice: 300000}, nil).Once()

		out, err := svc.Transition(ctx, admin, rental, domain.RentalStatusOngoing)
		require.NoError(t, err)
		assert.Same(t, rental, out)
		assert.Equal(t, domain.RentalStatusOngoing, rental.Status)
		assert.Equal(t, 300000.0, rental.TotalPrice)
		carRepo.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		rentalRepo.AssertExpectations(t)
	})

	t.Run("FinishReleasesCar", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		journal := new(MockTransitionRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, journal)

		rental := &domain.Rental{ID: 11, CarID: 4, Status: domain.RentalStatusOngoing}
		rentalRepo.On("UpdateStatus", ctx, admin, int32(11), domain.RentalStatusFinished).
			Return(&domain.Rental{ID: 11, CarID: 4, Status: domain.RentalStatusFinished}, nil).Once()
		carRepo.On("SetAvailability", ctx, admin, int32(4), true).Return(&domain.Car{ID: 4, Available: true}, nil).Once()
		journal.On("Create", ctx, mock.MatchedBy(func(tr *domain.Transition) bool {
			return tr.RentalID == 11 && tr.CarID == 4 && tr.ActorID == 1 &&
				tr.FromStatus == domain.RentalStatusOngoing && tr.ToStatus == domain.RentalStatusFinished &&
				tr.AvailabilitySynced && tr.SyncedOn != nil
		})).Return(nil).Once()

		_, err := svc.Transition(ctx, admin, rental, domain.RentalStatusFinished)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusFinished, rental.Status)
		carRepo.AssertExpectations(t)
		journal.AssertExpectations(t)
	})

	t.Run("DeclineSucceedsWhenReleaseFails", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		journal := new(MockTransitionRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, journal)

		rental := &domain.Rental{ID: 12, CarID: 5, Status: domain.RentalStatusPending}
		rentalRepo.On("UpdateStatus", ctx, admin, int32(12), domain.RentalStatusCancelled).
			Return(&domain.Rental{ID: 12, CarID: 5, Status: domain.RentalStatusCancelled}, nil).Once()
		carRepo.On("SetAvailability", ctx, admin, int32(5), true).
			Return(nil, &domain.NetworkError{Op: "SetCarAvailability", Err: errors.New("connection refused")}).Once()
		journal.On("Create", ctx, mock.MatchedBy(func(tr *domain.Transition) bool {
			return !tr.AvailabilitySynced && tr.SyncError != "" && tr.SyncedOn == nil
		})).Return(nil).Once()

		out, err := svc.Transition(ctx, admin, rental, domain.RentalStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCancelled, out.Status)
		journal.AssertExpectations(t)
	})

	t.Run("JournalFailureIsNotFatal", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		journal := new(MockTransitionRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, journal)

		rental := &domain.Rental{ID: 13, CarID: 6, Status: domain.RentalStatusPending}
		rentalRepo.On("UpdateStatus", ctx, admin, int32(13), domain.RentalStatusOngoing).
			Return(&domain.Rental{ID: 13, CarID: 6, Status: domain.RentalStatusOngoing}, nil).Once()
		journal.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

		_, err := svc.Transition(ctx, admin, rental, domain.RentalStatusOngoing)
		assert.NoError(t, err)
	})

	t.Run("InvalidTransitionsMakeNoCall", func(t *testing.T) {
		cases := []struct {
			from, to domain.RentalStatus
		}{
			{domain.RentalStatusPending, domain.RentalStatusFinished},
			{domain.RentalStatusPending, domain.RentalStatusPending},
			{domain.RentalStatusOngoing, domain.RentalStatusCancelled},
			{domain.RentalStatusOngoing, domain.RentalStatusPending},
			{domain.RentalStatusFinished, domain.RentalStatusOngoing},
			{domain.RentalStatusFinished, domain.RentalStatusCancelled},
			{domain.RentalStatusCancelled, domain.RentalStatusOngoing},
			{domain.RentalStatusCancelled, domain.RentalStatusFinished},
		}
		for _, c := range cases {
			rentalRepo := new(MockRentalRepo)
			carRepo := new(MockCarRepo)
			svc := newRentalService(rentalRepo, carRepo, nil, nil)

			rental := &domain.Rental{ID: 20, CarID: 7, Status: c.from}
			before := *rental
			_, err := svc.Transition(ctx, admin, rental, c.to)

			reason, ok := domain.ReasonOf(err)
			assert.True(t, ok, "%s -> %s", c.from, c.to)
			assert.Equal(t, domain.ReasonInvalidTransition, reason)
			assert.Equal(t, before, *rental)
			rentalRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			carRepo.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("StatusUpdateFailureLeavesRecord", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, nil)

		rental := &domain.Rental{ID: 14, CarID: 8, Status: domain.RentalStatusOngoing}
		rentalRepo.On("UpdateStatus", ctx, admin, int32(14), domain.RentalStatusFinished).
			Return(nil, &domain.RemoteError{StatusCode: http.StatusNotFound, Detail: "Rental not found"}).Once()

		_, err := svc.Transition(ctx, admin, rental, domain.RentalStatusFinished)
		assert.Equal(t, http.StatusNotFound, domain.StatusCodeOf(err))
		assert.Equal(t, domain.RentalStatusOngoing, rental.Status)
		carRepo.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyResponseKeepsRecord", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, nil)

		rental := &domain.Rental{ID: 15, UserID: 2, CarID: 9, TotalPrice: 500000, Status: domain.RentalStatusOngoing}
		rentalRepo.On("UpdateStatus", ctx, admin, int32(15), domain.RentalStatusFinished).
			Return(&domain.Rental{}, nil).Once()
		carRepo.On("SetAvailability", ctx, admin, int32(9), true).Return(&domain.Car{ID: 9, Available: true}, nil).Once()

		out, err := svc.Transition(ctx, admin, rental, domain.RentalStatusFinished)
		require.NoError(t, err)
		assert.Same(t, rental, out)
		assert.Equal(t, int32(15), rental.ID)
		assert.Equal(t, int32(9), rental.CarID)
		assert.Equal(t, 500000.0, rental.TotalPrice)
		assert.Equal(t, domain.RentalStatusFinished, rental.Status)
		carRepo.AssertExpectations(t)
	})
}

func TestRentalService_ApplyAction(t *testing.T) {
	ctx := context.Background()
	admin := testSession(1, "admin", domain.RoleAdmin)
	rentalRepo := new(MockRentalRepo)
	carRepo := new(MockCarRepo)
	svc := newRentalService(rentalRepo, carRepo, nil, nil)

	rentalRepo.On("ListAll", ctx, admin).Return([]domain.Rental{
		{ID: 1, CarID: 2, Status: domain.RentalStatusPending},
	}, nil)
	rentalRepo.On("UpdateStatus", ctx, admin, int32(1), domain.RentalStatusCancelled).
		Return(&domain.Rental{ID: 1, CarID: 2, Status: domain.RentalStatusCancelled}, nil).Once()
	carRepo.On("SetAvailability", ctx, admin, int32(2), true).Return(&domain.Car{ID: 2, Available: true}, nil).Once()

	out, err := svc.ApplyAction(ctx, admin, 1, "decline")
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCancelled, out.Status)

	_, err = svc.ApplyAction(ctx, admin, 99, "accept")
	assert.Equal(t, http.StatusNotFound, domain.StatusCodeOf(err))

	_, err = svc.ApplyAction(ctx, admin, 1, "teleport")
	reason, _ := domain.ReasonOf(err)
	assert.Equal(t, domain.ReasonInvalidInput, reason)
}

func TestRentalService_Views(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cars := []domain.Car{{ID: 1, Brand: "Toyota", Model: "Avanza"}, {ID: 2, Brand: "Honda", Model: "Brio"}}
	rentals := []domain.Rental{
		{ID: 1, UserID: 5, CarID: 1, Status: domain.RentalStatusFinished},
		{ID: 3, UserID: 6, CarID: 2, Status: domain.RentalStatusOngoing,
			EndDate: domain.Timestamp{Time: now.Add(26*time.Hour + 3*time.Minute)}},
		{ID: 2, UserID: 5, CarID: 9, Status: domain.RentalStatusPending},
	}

	t.Run("MyRentals", func(t *testing.T) {
		cust := testSession(5, "sari", domain.RoleCustomer)
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, nil)
		svc.now = func() time.Time { return now }

		rentalRepo.On("ListMine", mock.Anything, cust).Return(rentals, nil)
		carRepo.On("List", mock.Anything).Return(cars, nil)

		views, err := svc.MyRentals(ctx, cust)
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, []int32{3, 2, 1}, []int32{views[0].Rental.ID, views[1].Rental.ID, views[2].Rental.ID})
		require.NotNil(t, views[0].Remaining)
		assert.Equal(t, "1d 2h 3m 0s", views[0].Remaining.String())
		assert.Nil(t, views[1].Car)
		assert.Nil(t, views[2].Remaining)
		assert.Equal(t, "Avanza", views[2].Car.Model)
	})

	t.Run("HistoryFetchesEachRenterOnce", func(t *testing.T) {
		admin := testSession(1, "admin", domain.RoleAdmin)
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		userRepo := new(MockUserRepo)
		svc := newRentalService(rentalRepo, carRepo, userRepo, nil)
		svc.now = func() time.Time { return now }

		rentalRepo.On("ListAll", mock.Anything, admin).Return(rentals, nil)
		carRepo.On("List", mock.Anything).Return(cars, nil)
		userRepo.On("GetByID", ctx, admin, int32(5)).Return(&domain.User{ID: 5, FullName: "Sari"}, nil).Once()
		userRepo.On("GetByID", ctx, admin, int32(6)).Return(nil, &domain.RemoteError{StatusCode: 404}).Once()

		views, err := svc.History(ctx, admin)
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Nil(t, views[0].Renter)
		assert.Equal(t, "Sari", views[1].Renter.FullName)
		userRepo.AssertExpectations(t)
	})

	t.Run("HistoryFailsWhenListFails", func(t *testing.T) {
		admin := testSession(1, "admin", domain.RoleAdmin)
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		svc := newRentalService(rentalRepo, carRepo, new(MockUserRepo), nil)

		rentalRepo.On("ListAll", mock.Anything, admin).Return(nil, &domain.AuthError{StatusCode: http.StatusForbidden, Detail: "Admin only"})
		carRepo.On("List", mock.Anything).Return(cars, nil)

		_, err := svc.History(ctx, admin)
		assert.True(t, domain.IsAuthError(err))
	})
}

func TestRentalService_ReconcileAvailability(t *testing.T) {
	ctx := context.Background()
	admin := testSession(1, "admin", domain.RoleAdmin)

	t.Run("ReleasesOnlyJournaledCars", func(t *testing.T) {
		cars := []domain.Car{
			{ID: 1, Available: false}, // missed release: free it
			{ID: 2, Available: false}, // booked again since: keep
			{ID: 3, Available: true},  // already free
			{ID: 4, Available: false}, // closed rental but nothing journaled: leave alone
			{ID: 5, Available: false}, // missed release, retry fails
		}
		rentals := []domain.Rental{
			{ID: 1, CarID: 1, Status: domain.RentalStatusFinished},
			{ID: 2, CarID: 2, Status: domain.RentalStatusCancelled},
			{ID: 3, CarID: 2, Status: domain.RentalStatusPending},
			{ID: 4, CarID: 3, Status: domain.RentalStatusCancelled},
			{ID: 5, CarID: 4, Status: domain.RentalStatusFinished},
			{ID: 6, CarID: 5, Status: domain.RentalStatusCancelled},
		}

		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		journal := new(MockTransitionRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, journal)

		rentalRepo.On("ListAll", mock.Anything, admin).Return(rentals, nil)
		carRepo.On("List", mock.Anything).Return(cars, nil)
		carRepo.On("SetAvailability", ctx, admin, int32(1), true).Return(&domain.Car{ID: 1, Available: true}, nil).Once()
		carRepo.On("SetAvailability", ctx, admin, int32(5), true).Return(nil, &domain.RemoteError{StatusCode: 500}).Once()
		journal.On("ListUnsynced", ctx).Return([]domain.Transition{
			{ID: 1, CarID: 1}, {ID: 2, CarID: 1}, {ID: 3, CarID: 2}, {ID: 4, CarID: 3}, {ID: 5, CarID: 5},
		}, nil).Once()
		journal.On("MarkSyncedByCar", ctx, int32(1)).Return(int64(2), nil).Once()
		journal.On("MarkSyncedByCar", ctx, int32(2)).Return(int64(1), nil).Once()
		journal.On("MarkSyncedByCar", ctx, int32(3)).Return(int64(1), nil).Once()

		report, err := svc.ReconcileAvailability(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, 4, report.CarsChecked)
		assert.Equal(t, []int32{1}, report.Freed)
		assert.Contains(t, report.Failed, int32(5))
		assert.Equal(t, int64(4), report.JournalSynced)
		carRepo.AssertExpectations(t)
		carRepo.AssertNotCalled(t, "SetAvailability", ctx, admin, int32(4), true)
		journal.AssertNotCalled(t, "MarkSyncedByCar", ctx, int32(5))
		journal.AssertExpectations(t)
	})

	t.Run("ManuallyDisabledCarStaysDisabled", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		carRepo := new(MockCarRepo)
		journal := new(MockTransitionRepo)
		svc := newRentalService(rentalRepo, carRepo, nil, journal)

		rentalRepo.On("ListAll", mock.Anything, admin).
			Return([]domain.Rental{{ID: 1, CarID: 7, Status: domain.RentalStatusFinished}}, nil).Maybe()
		carRepo.On("List", mock.Anything).Return([]domain.Car{{ID: 7, Available: false}}, nil).Maybe()
		journal.On("ListUnsynced", ctx).Return([]domain.Transition{}, nil).Once()

		report, err := svc.ReconcileAvailability(ctx, admin)
		require.NoError(t, err)
		assert.Empty(t, report.Freed)
		assert.Zero(t, report.CarsChecked)
		carRepo.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NeedsJournal", func(t *testing.T) {
		carRepo := new(MockCarRepo)
		svc := newRentalService(new(MockRentalRepo), carRepo, nil, nil)

		_, err := svc.ReconcileAvailability(ctx, admin)
		assert.ErrorIs(t, err, ErrJournalDisabled)
		carRepo.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRentalService_RecentTransitions(t *testing.T) {
	ctx := context.Background()

	svc := newRentalService(new(MockRentalRepo), new(MockCarRepo), nil, nil)
	_, err := svc.RecentTransitions(ctx, 10)
	assert.ErrorIs(t, err, ErrJournalDisabled)

	journal := new(MockTransitionRepo)
	journal.On("ListRecent", ctx, 10).Return([]domain.Transition{{ID: 7}}, nil).Once()
	svc = newRentalService(new(MockRentalRepo), new(MockCarRepo), nil, journal)
	out, err := svc.RecentTransitions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Order completed", StatusMessage(domain.RentalStatusFinished))
	assert.Equal(t, "Order cancelled", StatusMessage(domain.RentalStatusCancelled))
	assert.Equal(t, "Status updated", StatusMessage(domain.RentalStatusOngoing))
}
