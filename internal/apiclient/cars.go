package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
)

type carRepository struct {
	c *Client
}

func NewCarRepository(c *Client) repository.CarRepository {
	return &carRepository{c: c}
}

// List is public; no session is sent
func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	var cars []domain.Car
	if err := r.c.do(ctx, nil, call{op: "ListCars", method: http.MethodGet, path: "/cars", out: &cars}); err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *carRepository) Create(ctx context.Context, sess *session.Session, in domain.CarInput) (*domain.Car, error) {
	var car domain.Car
	err := r.c.do(ctx, sess, call{op: "CreateCar", method: http.MethodPost, path: "/cars", auth: true, body: in, out: &car})
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *carRepository) Update(ctx context.Context, sess *session.Session, id int32, in domain.CarInput) (*domain.Car, error) {
	var car domain.Car
	err := r.c.do(ctx, sess, call{op: "UpdateCar", method: http.MethodPut, path: fmt.Sprintf("/cars/%d", id), auth: true, body: in, out: &car})
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *carRepository) Delete(ctx context.Context, sess *session.Session, id int32) error {
	return r.c.do(ctx, sess, call{op: "DeleteCar", method: http.MethodDelete, path: fmt.Sprintf("/cars/%d", id), auth: true})
}

func (r *carRepository) SetAvailability(ctx context.Context, sess *session.Session, id int32, available bool) (*domain.Car, error) {
	var car domain.Car
	body := domain.AvailabilityUpdate{Available: available}
	err := r.c.do(ctx, sess, call{op: "SetCarAvailability", method: http.MethodPut, path: fmt.Sprintf("/cars/%d/availability", id), auth: true, body: body, out: &car})
	if err != nil {
		return nil, err
	}
	return &car, nil
}
