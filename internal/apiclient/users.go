package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
)

type authRepository struct {
	c *Client
}

func NewAuthRepository(c *Client) repository.AuthRepository {
	return &authRepository{c: c}
}

func (r *authRepository) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}
	var u domain.User
	err := r.c.do(ctx, nil, call{op: "Register", method: http.MethodPost, path: "/users/register", body: req, out: &u})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login posts the OAuth2 password form the API expects
func (r *authRepository) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok domain.TokenResponse
	err := r.c.do(ctx, nil, call{op: "Login", method: http.MethodPost, path: "/users/token", form: form, out: &tok})
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &domain.RemoteError{StatusCode: http.StatusOK, Detail: "sign-in response carried no token"}
	}
	return &tok, nil
}

type userRepository struct {
	c *Client
}

func NewUserRepository(c *Client) repository.UserRepository {
	return &userRepository{c: c}
}

func (r *userRepository) GetByID(ctx context.Context, sess *session.Session, id int32) (*domain.User, error) {
	var u domain.User
	err := r.c.do(ctx, sess, call{op: "GetUser", method: http.MethodGet, path: fmt.Sprintf("/users/%d", id), auth: true, out: &u})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, sess *session.Session, id int32, upd domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	err := r.c.do(ctx, sess, call{op: "UpdateUser", method: http.MethodPut, path: fmt.Sprintf("/users/%d", id), auth: true, body: upd, out: &u})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
