package service

import (
	"context"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/navigation"
	"car-rental-client/internal/session"
)

type AuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*session.Session, navigation.Page, error) // session, landing page
	Logout(ctx context.Context) (navigation.Page, error)
	CurrentSession(ctx context.Context) (*session.Session, error)
}

type UserService interface {
	GetProfile(ctx context.Context, sess *session.Session) (*domain.User, error)
	UpdateProfile(ctx context.Context, sess *session.Session, current *domain.User, edited domain.EditableProfile) (*domain.User, error)
}

type CarService interface {
	ListCars(ctx context.Context) ([]domain.Car, error)
	GetCar(ctx context.Context, id int32) (*domain.Car, error)
	AddCar(ctx context.Context, sess *session.Session, in domain.CarInput) (*domain.Car, error)
	UpdateCar(ctx context.Context, sess *session.Session, id int32, in domain.CarInput) (*domain.Car, error)
	DeleteCar(ctx context.Context, sess *session.Session, id int32) error
	SetAvailability(ctx context.Context, sess *session.Session, id int32, available bool) (*domain.Car, error)
}

type BookingService interface {
	Quote(car *domain.Car, startDate, endDate string) domain.Quote
	Submit(ctx context.Context, sess *session.Session, car *domain.Car, startDate, endDate string) (*BookingResult, error)
}

type RentalService interface {
	Transition(ctx context.Context, sess *session.Session, rental *domain.Rental, target domain.RentalStatus) (*domain.Rental, error)
	ApplyAction(ctx context.Context, sess *session.Session, rentalID int32, action string) (*domain.Rental, error)
	MyRentals(ctx context.Context, sess *session.Session) ([]RentalView, error)
	History(ctx context.Context, sess *session.Session) ([]RentalView, error)
	RecentTransitions(ctx context.Context, limit int) ([]domain.Transition, error)
	ReconcileAvailability(ctx context.Context, sess *session.Session) (*ReconcileReport, error)
}
