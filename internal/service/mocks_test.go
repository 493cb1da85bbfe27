package service

import (
	"context"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/security"
	"car-rental-client/internal/session"

	"github.com/stretchr/testify/mock"
)

// MockAuthRepo
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockAuthRepo) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, sess *session.Session, id int32) (*domain.User, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, sess *session.Session, id int32, upd domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, sess, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockCarRepo
type MockCarRepo struct {
	mock.Mock
}

func (m *MockCarRepo) List(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}
func (m *MockCarRepo) Create(ctx context.Context, sess *session.Session, in domain.CarInput) (*domain.Car, error) {
	args := m.Called(ctx, sess, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}
func (m *MockCarRepo) Update(ctx context.Context, sess *session.Session, id int32, in domain.CarInput) (*domain.Car, error) {
	args := m.Called(ctx, sess, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}
func (m *MockCarRepo) Delete(ctx context.Context, sess *session.Session, id int32) error {
	args := m.Called(ctx, sess, id)
	return args.Error(0)
}
func (m *MockCarRepo) SetAvailability(ctx context.Context, sess *session.Session, id int32, available bool) (*domain.Car, error) {
	args := m.Called(ctx, sess, id, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, sess *session.Session, req domain.CreateRentalRequest) (*domain.Rental, error) {
	args := m.Called(ctx, sess, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListMine(ctx context.Context, sess *session.Session) ([]domain.Rental, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListAll(ctx context.Context, sess *session.Session) ([]domain.Rental, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) UpdateStatus(ctx context.Context, sess *session.Session, id int32, status domain.RentalStatus) (*domain.Rental, error) {
	args := m.Called(ctx, sess, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

// MockTransitionRepo
type MockTransitionRepo struct {
	mock.Mock
}

func (m *MockTransitionRepo) Create(ctx context.Context, t *domain.Transition) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockTransitionRepo) ListUnsynced(ctx context.Context) ([]domain.Transition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transition), args.Error(1)
}
func (m *MockTransitionRepo) MarkSyncedByCar(ctx context.Context, carID int32) (int64, error) {
	args := m.Called(ctx, carID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockTransitionRepo) ListRecent(ctx context.Context, limit int) ([]domain.Transition, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transition), args.Error(1)
}

// testSession signs a real token so the session carries decodable claims
func testSession(userID int32, username string, role domain.Role) *session.Session {
	token, err := security.NewTokenManager("service-test", time.Hour).GenerateAccessToken(userID, username, string(role))
	if err != nil {
		panic(err)
	}
	sess, err := session.New(token, time.Now())
	if err != nil {
		panic(err)
	}
	return sess
}
