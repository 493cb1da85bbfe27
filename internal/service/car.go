package service

import (
	"context"
	"fmt"
	"net/http"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
)

type carService struct {
	carRepo repository.CarRepository
}

func NewCarService(carRepo repository.CarRepository) CarService {
	return &carService{carRepo: carRepo}
}

func (s *carService) ListCars(ctx context.Context) ([]domain.Car, error) {
	return s.carRepo.List(ctx)
}

// GetCar looks the car up in the public list; the API has no single-car read.
func (s *carService) GetCar(ctx context.Context, id int32) (*domain.Car, error) {
	cars, err := s.carRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if car, ok := domain.CarIndex(cars)[id]; ok {
		return car, nil
	}
	return nil, &domain.RemoteError{StatusCode: http.StatusNotFound, Detail: fmt.Sprintf("car %d not found", id)}
}

func (s *carService) AddCar(ctx context.Context, sess *session.Session, in domain.CarInput) (*domain.Car, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	car, err := s.carRepo.Create(ctx, sess, in)
	if err != nil {
		return nil, err
	}
	logger.Info("Car added", "carID", car.ID, "brand", car.Brand, "model", car.Model)
	return car, nil
}

func (s *carService) UpdateCar(ctx context.Context, sess *session.Session, id int32, in domain.CarInput) (*domain.Car, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	car, err := s.carRepo.Update(ctx, sess, id, in)
	if err != nil {
		return nil, err
	}
	logger.Info("Car updated", "carID", car.ID)
	return car, nil
}

func (s *carService) DeleteCar(ctx context.Context, sess *session.Session, id int32) error {
	if err := s.carRepo.Delete(ctx, sess, id); err != nil {
		return err
	}
	logger.Info("Car deleted", "carID", id)
	return nil
}

func (s *carService) SetAvailability(ctx context.Context, sess *session.Session, id int32, available bool) (*domain.Car, error) {
	return s.carRepo.SetAvailability(ctx, sess, id, available)
}
