package http

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/security"

	"golang.org/x/crypto/bcrypt"
)

// MockBackend is an in-memory stand-in for the rental REST API.
// It serves local development and tests.
type MockBackend struct {
	mu      sync.Mutex
	tokens  security.TokenManager
	now     func() time.Time
	users   map[int32]*mockUser
	cars    map[int32]*domain.Car
	rentals map[int32]*domain.Rental
	nextID  struct{ user, car, rental int32 }
	faults  map[string]*fault
	calls   map[string]int
}

type mockUser struct {
	domain.User
	passwordHash []byte
}

// fault makes a named route answer with a fixed error for the next n calls.
// n < 0 means until cleared.
type fault struct {
	status    int
	detail    string
	remaining int
	dropConn  bool
}

// NewMockBackend creates an empty backend that signs tokens with secret
func NewMockBackend(secret string, tokenTTL time.Duration) *MockBackend {
	return &MockBackend{
		tokens:  security.NewTokenManager(secret, tokenTTL),
		now:     time.Now,
		users:   make(map[int32]*mockUser),
		cars:    make(map[int32]*domain.Car),
		rentals: make(map[int32]*domain.Rental),
		faults:  make(map[string]*fault),
		calls:   make(map[string]int),
	}
}

// SetClock replaces the backend's time source
func (b *MockBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// SeedUser adds an account directly, bypassing registration
func (b *MockBackend) SeedUser(username, password, fullName string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findUserLocked(username) != nil {
		return nil, fmt.Errorf("username %s already exists", username)
	}
	b.nextID.user++
	u := &mockUser{
		User: domain.User{
			ID:       b.nextID.user,
			Username: username,
			Email:    username + "@example.com",
			FullName: fullName,
			Role:     role,
		},
		passwordHash: hash,
	}
	b.users[u.ID] = u
	out := u.User
	return &out, nil
}

func (b *MockBackend) SeedCar(in domain.CarInput) domain.Car {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.createCarLocked(in)
}

// SeedRental inserts a rental in any status. Active rentals mark the car unavailable.
func (b *MockBackend) SeedRental(userID, carID int32, start, end time.Time, status domain.RentalStatus) domain.Rental {
	b.mu.Lock()
	defer b.mu.Unlock()

	price := 0.0
	if car, ok := b.cars[carID]; ok {
		price = car.PricePerDay
		if status.IsActive() {
			car.Available = false
		}
	}
	b.nextID.rental++
	r := &domain.Rental{
		ID:         b.nextID.rental,
		UserID:     userID,
		CarID:      carID,
		StartDate:  domain.Timestamp{Time: start.UTC()},
		EndDate:    domain.Timestamp{Time: end.UTC()},
		TotalPrice: float64(billableDays(end.Sub(start))) * price,
		Status:     status,
	}
	b.rentals[r.ID] = r
	return *r
}

// SeedDemo loads an admin account and a small fleet
func (b *MockBackend) SeedDemo(adminUser, adminPassword string) error {
	if _, err := b.SeedUser(adminUser, adminPassword, "Fleet Admin", domain.RoleAdmin); err != nil {
		return err
	}
	fleet := []domain.CarInput{
		{Brand: "Toyota", Model: "Avanza", Year: 2022, PricePerDay: 350000, Description: "7-seater MPV"},
		{Brand: "Honda", Model: "Brio", Year: 2021, PricePerDay: 250000, Description: "City hatchback"},
		{Brand: "Mitsubishi", Model: "Xpander", Year: 2023, PricePerDay: 450000, Description: "Family MPV"},
	}
	for _, in := range fleet {
		b.SeedCar(in)
	}
	return nil
}

// Fail makes the named route answer status/detail for the next n calls
func (b *MockBackend) Fail(route string, status int, detail string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[route] = &fault{status: status, detail: detail, remaining: n}
}

// Drop makes the named route close the connection without answering
func (b *MockBackend) Drop(route string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[route] = &fault{dropConn: true, remaining: n}
}

// ClearFaults removes every injected failure
func (b *MockBackend) ClearFaults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = make(map[string]*fault)
}

// Calls returns how many requests reached the named route
func (b *MockBackend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *MockBackend) Car(id int32) (domain.Car, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cars[id]
	if !ok {
		return domain.Car{}, false
	}
	return *c, true
}

func (b *MockBackend) Rental(id int32) (domain.Rental, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rentals[id]
	if !ok {
		return domain.Rental{}, false
	}
	return *r, true
}

// IssueToken signs a token for an existing user, skipping the password check
func (b *MockBackend) IssueToken(userID int32) (string, error) {
	b.mu.Lock()
	u, ok := b.users[userID]
	b.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("user %d not found", userID)
	}
	return b.tokens.GenerateAccessToken(u.ID, u.Username, string(u.Role))
}

// takeFault records the call and returns the active fault for route, if any
func (b *MockBackend) takeFault(route string) *fault {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[route]++
	f, ok := b.faults[route]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(b.faults, route)
		}
	}
	out := *f
	return &out
}

func (b *MockBackend) findUserLocked(username string) *mockUser {
	for _, u := range b.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (b *MockBackend) createCarLocked(in domain.CarInput) *domain.Car {
	b.nextID.car++
	car := &domain.Car{ID: b.nextID.car}
	applyCarInput(car, in)
	if in.Available == nil {
		car.Available = true
	}
	b.cars[car.ID] = car
	return car
}

func applyCarInput(car *domain.Car, in domain.CarInput) {
	car.Brand = in.Brand
	car.Model = in.Model
	car.Year = in.Year
	car.PricePerDay = in.PricePerDay
	car.ImageURL = in.ImageURL
	car.Description = in.Description
	if in.Available != nil {
		car.Available = *in.Available
	}
}

func sortedRentals(m map[int32]*domain.Rental, keep func(*domain.Rental) bool) []domain.Rental {
	out := make([]domain.Rental, 0, len(m))
	for _, r := range m {
		if keep == nil || keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// billableDays is the server's own rule: ceil of the duration in days, minimum 1
func billableDays(d time.Duration) int {
	days := int(math.Ceil(d.Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
