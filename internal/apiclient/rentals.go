package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
)

type rentalRepository struct {
	c *Client
}

func NewRentalRepository(c *Client) repository.RentalRepository {
	return &rentalRepository{c: c}
}

// Create sends car and dates only. The server prices the rental.
func (r *rentalRepository) Create(ctx context.Context, sess *session.Session, req domain.CreateRentalRequest) (*domain.Rental, error) {
	var rental domain.Rental
	err := r.c.do(ctx, sess, call{op: "CreateRental", method: http.MethodPost, path: "/rentals", auth: true, body: req, out: &rental})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *rentalRepository) ListMine(ctx context.Context, sess *session.Session) ([]domain.Rental, error) {
	var rentals []domain.Rental
	if err := r.c.do(ctx, sess, call{op: "ListMyRentals", method: http.MethodGet, path: "/rentals/me", auth: true, out: &rentals}); err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *rentalRepository) ListAll(ctx context.Context, sess *session.Session) ([]domain.Rental, error) {
	var rentals []domain.Rental
	if err := r.c.do(ctx, sess, call{op: "ListRentals", method: http.MethodGet, path: "/rentals", auth: true, out: &rentals}); err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, sess *session.Session, id int32, status domain.RentalStatus) (*domain.Rental, error) {
	var rental domain.Rental
	body := domain.StatusUpdate{Status: status}
	err := r.c.do(ctx, sess, call{op: "UpdateRentalStatus", method: http.MethodPatch, path: fmt.Sprintf("/rentals/%d/status", id), auth: true, body: body, out: &rental})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}
