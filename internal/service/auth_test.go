package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/navigation"
	"car-rental-client/internal/security"
	"car-rental-client/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	tokens := security.NewTokenManager("auth-test", time.Hour)

	t.Run("CustomerLandsOnVehicles", func(t *testing.T) {
		repo := new(MockAuthRepo)
		store := session.NewMemoryStore()
		svc := NewAuthService(repo, store)

		token, _ := tokens.GenerateAccessToken(3, "sari", "customer")
		repo.On("Login", ctx, "sari", "pw").Return(&domain.TokenResponse{AccessToken: token, TokenType: "bearer", Role: domain.RoleCustomer, UserID: 3}, nil).Once()

		sess, page, err := svc.Login(ctx, "sari", "pw")
		require.NoError(t, err)
		assert.Equal(t, int32(3), sess.UserID())
		assert.Equal(t, navigation.Vehicles{}, page)

		stored, err := svc.CurrentSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, token, stored.Token)
	})

	t.Run("AdminLandsOnFleet", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc := NewAuthService(repo, session.NewMemoryStore())

		token, _ := tokens.GenerateAccessToken(1, "admin", "admin")
		repo.On("Login", ctx, "admin", "pw").Return(&domain.TokenResponse{AccessToken: token}, nil).Once()

		_, page, err := svc.Login(ctx, "admin", "pw")
		require.NoError(t, err)
		assert.Equal(t, navigation.AdminCars{}, page)
	})

	t.Run("RejectedCredentialsKeepNoSession", func(t *testing.T) {
		repo := new(MockAuthRepo)
		store := session.NewMemoryStore()
		svc := NewAuthService(repo, store)

		repo.On("Login", ctx, "sari", "bad").Return(nil, &domain.AuthError{StatusCode: http.StatusUnauthorized, Detail: "Incorrect username or password"}).Once()

		_, _, err := svc.Login(ctx, "sari", "bad")
		assert.True(t, domain.IsAuthError(err))
		stored, _ := store.Load()
		assert.Nil(t, stored)
	})

	t.Run("BlankFieldsFailLocally", func(t *testing.T) {
		repo := new(MockAuthRepo)
		svc := NewAuthService(repo, session.NewMemoryStore())
		_, _, err := svc.Login(ctx, "", "pw")
		reason, _ := domain.ReasonOf(err)
		assert.Equal(t, domain.ReasonInvalidInput, reason)
		repo.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(testSession(3, "sari", domain.RoleCustomer)))

	svc := NewAuthService(new(MockAuthRepo), store)
	page, err := svc.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, navigation.Home{}, page)

	sess, err := svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthRepo)
	svc := NewAuthService(repo, session.NewMemoryStore())

	req := domain.RegisterRequest{Username: "andi", Email: "andi@example.com", Password: "pw"}
	expected := req
	expected.Role = domain.RoleCustomer
	repo.On("Register", ctx, expected).Return(&domain.User{ID: 9, Username: "andi", Role: domain.RoleCustomer}, nil).Once()

	u, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int32(9), u.ID)

	_, err = svc.Register(ctx, domain.RegisterRequest{Username: "x", Email: "not-an-email", Password: "pw"})
	reason, _ := domain.ReasonOf(err)
	assert.Equal(t, domain.ReasonInvalidInput, reason)
	repo.AssertExpectations(t)
}
