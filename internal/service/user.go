package service

import (
	"context"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetProfile loads the signed-in user's record using the id from the token
func (s *userService) GetProfile(ctx context.Context, sess *session.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.NewNoSessionError()
	}
	return s.userRepo.GetByID(ctx, sess, sess.UserID())
}

// UpdateProfile sends only the fields that differ from current. An unchanged
// form returns ErrNoChanges without a request.
func (s *userService) UpdateProfile(ctx context.Context, sess *session.Session, current *domain.User, edited domain.EditableProfile) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.NewNoSessionError()
	}
	if current == nil {
		loaded, err := s.GetProfile(ctx, sess)
		if err != nil {
			return nil, err
		}
		current = loaded
	}

	upd := domain.DiffProfile(current.Editable(), edited)
	if upd.IsEmpty() {
		return nil, domain.ErrNoChanges
	}
	if err := domain.Validate(upd); err != nil {
		return nil, err
	}

	u, err := s.userRepo.Update(ctx, sess, current.ID, upd)
	if err != nil {
		return nil, err
	}
	logger.Info("Profile updated", "userID", u.ID)
	return u, nil
}
