package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ReasonCode identifies why a local check refused an action
type ReasonCode string

const (
	ReasonInvalidDateRange  ReasonCode = "INVALID_DATE_RANGE"
	ReasonNotAuthenticated  ReasonCode = "NOT_AUTHENTICATED"
	ReasonWrongRole         ReasonCode = "WRONG_ROLE"
	ReasonIncompleteProfile ReasonCode = "INCOMPLETE_PROFILE"
	ReasonInvalidTransition ReasonCode = "INVALID_TRANSITION"
	ReasonInvalidInput      ReasonCode = "INVALID_INPUT"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrNoChanges = errors.New("no changes detected")
)

const unreachableMsg = "Network error: cannot connect to server"

// ValidationError is raised before any network call is made.
type ValidationError struct {
	Reason  ReasonCode
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

// AuthError covers a missing credential and 401/403 responses.
type AuthError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.StatusCode != 0 {
		return http.StatusText(e.StatusCode)
	}
	return "authentication required"
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewNoSessionError returns the AuthError used when no token is held locally
func NewNoSessionError() *AuthError {
	return &AuthError{Detail: "please sign in first", Err: ErrNoSession}
}

// RemoteError is any other non-2xx response. Detail is the server's message.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// NetworkError means no response reached the client.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return unreachableMsg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ReasonOf extracts the reason code from a ValidationError or a local AuthError
func ReasonOf(err error) (ReasonCode, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reason, true
	}
	if errors.Is(err, ErrNoSession) {
		return ReasonNotAuthenticated, true
	}
	return "", false
}

// IsAuthError reports whether the caller should send the user to sign in
func IsAuthError(err error) bool {
	var aErr *AuthError
	return errors.As(err, &aErr)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var nErr *NetworkError
	return errors.As(err, &nErr)
}

// StatusCodeOf returns the HTTP status carried by a remote or auth error, or 0
func StatusCodeOf(err error) int {
	var rErr *RemoteError
	if errors.As(err, &rErr) {
		return rErr.StatusCode
	}
	var aErr *AuthError
	if errors.As(err, &aErr) {
		return aErr.StatusCode
	}
	return 0
}
