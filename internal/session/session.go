// Package session holds the signed-in user's credential as an explicit value.
// A Session is created at sign-in, passed to every call that needs it, and
// dropped at sign-out. Nothing in this package is process-global.
package session

import (
	"fmt"
	"strings"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/security"
)

type Session struct {
	Token     string
	CreatedAt time.Time
	claims    *security.UserClaims
}

// New decodes the token's advisory claims. An undecodable token is rejected.
func New(token string, now time.Time) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.NewNoSessionError()
	}
	claims, err := security.DecodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &Session{Token: token, CreatedAt: now, claims: claims}, nil
}

// Authenticated is true when a token is held. Expiry is not checked here;
// the server answers 401 for stale tokens.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

func (s *Session) Role() domain.Role {
	if s == nil || s.claims == nil {
		return ""
	}
	return domain.Role(s.claims.Role)
}

func (s *Session) UserID() int32 {
	if s == nil || s.claims == nil {
		return 0
	}
	return s.claims.UserID
}

func (s *Session) Username() string {
	if s == nil || s.claims == nil {
		return ""
	}
	return s.claims.Username()
}

func (s *Session) IsAdmin() bool    { return s.Role() == domain.RoleAdmin }
func (s *Session) IsCustomer() bool { return s.Role() == domain.RoleCustomer }

// ExpiresAt returns the advisory expiry, or the zero time if the token has none
func (s *Session) ExpiresAt() time.Time {
	if s == nil || s.claims == nil || s.claims.ExpiresAt == nil {
		return time.Time{}
	}
	return s.claims.ExpiresAt.Time
}

func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.claims == nil {
		return true
	}
	return s.claims.Expired(now)
}
