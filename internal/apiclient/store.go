package apiclient

import (
	"car-rental-client/internal/repository"
)

// Store bundles the API-backed repositories over one Client
type Store struct {
	client *Client
	repository.AuthRepository
	repository.UserRepository
	repository.CarRepository
	repository.RentalRepository
}

func NewStore(c *Client) *Store {
	return &Store{
		client:           c,
		AuthRepository:   NewAuthRepository(c),
		UserRepository:   NewUserRepository(c),
		CarRepository:    NewCarRepository(c),
		RentalRepository: NewRentalRepository(c),
	}
}

func (s *Store) Client() *Client { return s.client }
