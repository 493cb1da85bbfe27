package service

import (
	"context"
	"fmt"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/navigation"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
)

type authService struct {
	authRepo repository.AuthRepository
	sessions session.Store
	now      func() time.Time
}

func NewAuthService(authRepo repository.AuthRepository, sessions session.Store) AuthService {
	return &authService{
		authRepo: authRepo,
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	u, err := s.authRepo.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Info("User registered", "userID", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// Login exchanges credentials for a token, keeps it as the current session
// and returns the page the user should land on.
func (s *authService) Login(ctx context.Context, username, password string) (*session.Session, navigation.Page, error) {
	logger.EnterMethod("authService.Login", "username", username)
	if username == "" || password == "" {
		err := &domain.ValidationError{Reason: domain.ReasonInvalidInput, Message: "username and password are required"}
		logger.ExitMethodWithError("authService.Login", err, "username", username)
		return nil, nil, err
	}

	tok, err := s.authRepo.Login(ctx, username, password)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "username", username)
		return nil, nil, err
	}

	sess, err := session.New(tok.AccessToken, s.now())
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "username", username)
		return nil, nil, err
	}
	if err := s.sessions.Save(sess); err != nil {
		return nil, nil, fmt.Errorf("failed to save session: %w", err)
	}

	landing := navigation.Landing(sess)
	logger.ExitMethod("authService.Login", "userID", sess.UserID(), "role", sess.Role(), "landing", landing.Path())
	return sess, landing, nil
}

func (s *authService) Logout(ctx context.Context) (navigation.Page, error) {
	if err := s.sessions.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}
	logger.Info("User signed out")
	return navigation.Home{}, nil
}

// CurrentSession returns the stored session, or nil when signed out
func (s *authService) CurrentSession(ctx context.Context) (*session.Session, error) {
	return s.sessions.Load()
}
