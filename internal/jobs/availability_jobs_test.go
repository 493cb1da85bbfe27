package jobs

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mockapi "car-rental-client/internal/api/http"
	"car-rental-client/internal/apiclient"
	"car-rental-client/internal/config"
	"car-rental-client/internal/domain"
	"car-rental-client/internal/service"
	"car-rental-client/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memJournal keeps transitions in memory
type memJournal struct {
	mu      sync.Mutex
	entries []domain.Transition
}

func (j *memJournal) Create(ctx context.Context, t *domain.Transition) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	t.ID = int64(len(j.entries) + 1)
	j.entries = append(j.entries, *t)
	return nil
}

func (j *memJournal) ListUnsynced(ctx context.Context) ([]domain.Transition, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.Transition
	for _, e := range j.entries {
		if !e.AvailabilitySynced {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *memJournal) MarkSyncedByCar(ctx context.Context, carID int32) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var n int64
	for i := range j.entries {
		if j.entries[i].CarID == carID && !j.entries[i].AvailabilitySynced {
			j.entries[i].AvailabilitySynced = true
			n++
		}
	}
	return n, nil
}

func (j *memJournal) ListRecent(ctx context.Context, limit int) ([]domain.Transition, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.Transition(nil), j.entries...), nil
}

func newRunner(t *testing.T, b *mockapi.MockBackend, username, password string, journal *memJournal) *JobRunner {
	t.Helper()
	srv := httptest.NewServer(b.Router())
	t.Cleanup(srv.Close)

	store := apiclient.NewStore(apiclient.New(srv.URL))
	services := &Services{
		Auth:   service.NewAuthService(store.AuthRepository, session.NewMemoryStore()),
		Rental: service.NewRentalService(store.RentalRepository, store.CarRepository, store.UserRepository, journal),
	}
	cfg := &config.Config{Admin: config.AdminConfig{Username: username, Password: password}}
	return NewJobRunner(services, cfg)
}

func TestReconcileAvailability(t *testing.T) {
	b := mockapi.NewMockBackend("jobs-secret", time.Hour)
	_, err := b.SeedUser("admin", "admin-pw", "Admin", domain.RoleAdmin)
	require.NoError(t, err)
	cust, err := b.SeedUser("sari", "pw", "Sari", domain.RoleCustomer)
	require.NoError(t, err)

	unavailable := false
	stuck := b.SeedCar(domain.CarInput{Brand: "Toyota", Model: "Avanza", Year: 2022, PricePerDay: 1, Available: &unavailable})
	retired := b.SeedCar(domain.CarInput{Brand: "Honda", Model: "Brio", Year: 2021, PricePerDay: 1, Available: &unavailable})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	missed := b.SeedRental(cust.ID, stuck.ID, start, start.Add(48*time.Hour), domain.RentalStatusCancelled)
	b.SeedRental(cust.ID, retired.ID, start, start.Add(48*time.Hour), domain.RentalStatusFinished)

	// the release for the stuck car failed at decline time; the retired car
	// was taken out of service by an admin after its rental finished
	journal := &memJournal{}
	require.NoError(t, journal.Create(context.Background(), &domain.Transition{
		RentalID: missed.ID, CarID: stuck.ID,
		FromStatus: domain.RentalStatusPending, ToStatus: domain.RentalStatusCancelled,
		SyncError: "Network error: cannot connect to server",
	}))

	runner := newRunner(t, b, "admin", "admin-pw", journal)
	report, err := runner.reconcileAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CarsChecked)
	assert.Equal(t, []int32{stuck.ID}, report.Freed)
	assert.Equal(t, int64(1), report.JournalSynced)

	car, _ := b.Car(stuck.ID)
	assert.True(t, car.Available)
	car, _ = b.Car(retired.ID)
	assert.False(t, car.Available)

	t.Run("SecondPassIsNoop", func(t *testing.T) {
		report, err := runner.reconcileAvailability(context.Background())
		require.NoError(t, err)
		assert.Empty(t, report.Freed)
		assert.Zero(t, report.CarsChecked)

		car, _ := b.Car(retired.ID)
		assert.False(t, car.Available)
	})
}

func TestReconcileAvailability_RequiresAdmin(t *testing.T) {
	b := mockapi.NewMockBackend("jobs-secret", time.Hour)
	_, err := b.SeedUser("sari", "pw", "Sari", domain.RoleCustomer)
	require.NoError(t, err)

	runner := newRunner(t, b, "sari", "pw", &memJournal{})
	_, err = runner.reconcileAvailability(context.Background())
	assert.ErrorContains(t, err, "not an admin")

	runner = newRunner(t, b, "sari", "wrong", &memJournal{})
	_, err = runner.reconcileAvailability(context.Background())
	assert.True(t, domain.IsAuthError(err))

	// the scheduled entry point only logs
	assert.NotPanics(t, runner.ReconcileAvailability)
}
