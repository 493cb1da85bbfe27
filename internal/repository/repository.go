package repository

import (
	"context"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/session"
)

// The remote rental API is the system of record. These interfaces are
// what the services need from it; apiclient implements them over HTTP.

type AuthRepository interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.TokenResponse, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, sess *session.Session, id int32) (*domain.User, error)
	Update(ctx context.Context, sess *session.Session, id int32, upd domain.ProfileUpdate) (*domain.User, error)
}

type CarRepository interface {
	List(ctx context.Context) ([]domain.Car, error)
	Create(ctx context.Context, sess *session.Session, in domain.CarInput) (*domain.Car, error)
	Update(ctx context.Context, sess *session.Session, id int32, in domain.CarInput) (*domain.Car, error)
	Delete(ctx context.Context, sess *session.Session, id int32) error
	SetAvailability(ctx context.Context, sess *session.Session, id int32, available bool) (*domain.Car, error)
}

type RentalRepository interface {
	Create(ctx context.Context, sess *session.Session, req domain.CreateRentalRequest) (*domain.Rental, error)
	ListMine(ctx context.Context, sess *session.Session) ([]domain.Rental, error)
	ListAll(ctx context.Context, sess *session.Session) ([]domain.Rental, error)
	UpdateStatus(ctx context.Context, sess *session.Session, id int32, status domain.RentalStatus) (*domain.Rental, error)
}

// TransitionRepository is the local journal of admin status changes and
// whether the follow-up availability update went through.
type TransitionRepository interface {
	Create(ctx context.Context, t *domain.Transition) error
	ListUnsynced(ctx context.Context) ([]domain.Transition, error)
	MarkSyncedByCar(ctx context.Context, carID int32) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Transition, error)
}
