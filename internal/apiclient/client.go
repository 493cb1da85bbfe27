// Package apiclient talks to the car-rental REST API. It never retries;
// every failure is returned to the caller as a domain error.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/session"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
)

const serviceName = "car-rental-api"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a client-side timeout. Zero keeps the default of none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCircuitBreaker stops calling a server that failed maxFailures times in
// a row and reports NetworkError until openTimeout has passed.
func WithCircuitBreaker(maxFailures, halfOpenRequests uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        serviceName,
			MaxRequests: halfOpenRequests,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var rErr *domain.RemoteError
				return errors.As(err, &rErr) && rErr.StatusCode < http.StatusInternalServerError
			},
		})
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// call describes one request. Exactly one of body and form may be set.
type call struct {
	op     string
	method string
	path   string
	auth   bool
	body   any
	form   url.Values
	out    any
}

type rawResponse struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, sess *session.Session, cl call) error {
	if cl.auth && !sess.Authenticated() {
		return domain.NewNoSessionError()
	}

	req, err := c.newRequest(ctx, sess, cl)
	if err != nil {
		return err
	}
	requestID := req.Header.Get("X-Request-ID")

	logger.ExternalServiceCall(serviceName, cl.op, "method", cl.method, "path", cl.path, "request_id", requestID)

	resp, err := c.execute(req)
	if err != nil {
		err = c.classifyFailure(cl.op, err)
		logger.ExternalServiceResult(serviceName, cl.op, err, "request_id", requestID)
		return err
	}

	if resp.status < 200 || resp.status >= 300 {
		err = errorFromResponse(resp.status, resp.body)
		logger.ExternalServiceResult(serviceName, cl.op, err, "status", resp.status, "request_id", requestID)
		return err
	}

	if cl.out != nil && len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, cl.out); err != nil {
			err = &domain.RemoteError{StatusCode: resp.status, Detail: fmt.Sprintf("unexpected response body: %v", err)}
			logger.ExternalServiceResult(serviceName, cl.op, err, "status", resp.status, "request_id", requestID)
			return err
		}
	}

	logger.ExternalServiceResult(serviceName, cl.op, nil, "status", resp.status, "request_id", requestID)
	return nil
}

func (c *Client) newRequest(ctx context.Context, sess *session.Session, cl call) (*http.Request, error) {
	var body io.Reader
	contentType := ""
	switch {
	case cl.form != nil:
		body = strings.NewReader(cl.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case cl.body != nil:
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", cl.op, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", cl.op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	return req, nil
}

// execute sends the request, through the breaker when one is configured.
// 5xx responses are returned as errors so the breaker counts them.
func (c *Client) execute(req *http.Request) (*rawResponse, error) {
	send := func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: resp.StatusCode, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return raw, errorFromResponse(resp.StatusCode, data)
		}
		return raw, nil
	}

	if c.breaker == nil {
		out, err := send()
		return asRaw(out), err
	}
	out, err := c.breaker.Execute(send)
	return asRaw(out), err
}

func asRaw(v interface{}) *rawResponse {
	raw, _ := v.(*rawResponse)
	return raw
}

// classifyFailure keeps HTTP-level errors as they are and turns everything
// else, including an open breaker, into a NetworkError.
func (c *Client) classifyFailure(op string, err error) error {
	var rErr *domain.RemoteError
	if errors.As(err, &rErr) {
		return rErr
	}
	var aErr *domain.AuthError
	if errors.As(err, &aErr) {
		return aErr
	}
	return &domain.NetworkError{Op: op, Err: err}
}

// Ping checks that the API answers GET /cars
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, nil, call{op: "Ping", method: http.MethodGet, path: "/cars"})
}
