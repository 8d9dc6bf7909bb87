package workforge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/source"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("work forge backend unavailable")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("work forge API error (%d) on %s %s: %s",
			e.StatusCode, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is a thin HTTP client for the Work Forge REST API. It handles
// Bearer token authentication and JSON marshaling, retries transient
// failures with exponential backoff, and stops calling a failing backend
// through a circuit breaker.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retrier    *retrier.Retrier
	breaker    *gobreaker.CircuitBreaker
	log        *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithBackoff sets the wait before each retry. An empty slice disables
// retries.
func WithBackoff(backoff []time.Duration) Option {
	return func(c *Client) { c.retrier = retrier.New(backoff, classifier{}) }
}

// WithBreaker replaces the circuit breaker settings. Name, IsSuccessful
// and OnStateChange are filled in when left empty.
func WithBreaker(st gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = newBreaker(st, c.log) }
}

// NewClient creates a new Work Forge HTTP client. baseURL is the root of
// the deployment, e.g. https://forge.example.com; API paths are appended
// to it.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retrier: retrier.New(retrier.ExponentialBackoff(3, 500*time.Millisecond), classifier{}),
		log:     logging.WithComponent("workforge"),
	}
	c.breaker = newBreaker(gobreaker.Settings{}, c.log)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(st gobreaker.Settings, log *logrus.Entry) *gobreaker.CircuitBreaker {
	if st.Name == "" {
		st.Name = "workforge-api"
	}
	if st.MaxRequests == 0 {
		st.MaxRequests = 1
	}
	if st.Timeout == 0 {
		st.Timeout = 30 * time.Second
	}
	if st.ReadyToTrip == nil {
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		}
	}
	if st.IsSuccessful == nil {
		st.IsSuccessful = countsAsSuccess
	}
	if st.OnStateChange == nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		}
	}
	return gobreaker.NewCircuitBreaker(st)
}

// BreakerState reports the circuit breaker state for status display.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with an optional JSON body.
func (c *Client) Put(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// do runs one logical request through the breaker and the retrier.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.retrier.RunCtx(ctx, func(ctx context.Context) error {
			return c.once(ctx, method, path, payload, result)
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	return err
}

// once performs a single HTTP round trip.
func (c *Client) once(
	ctx context.Context,
	method string,
	path string,
	payload []byte,
	result interface{},
) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("work forge request")

	if resp.StatusCode == http.StatusUnauthorized {
		return &source.AuthError{
			Service: "workforge",
			Message: fmt.Sprintf("token rejected by %s; run `forgedesk login`", c.baseURL),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    errorMessage(respBody),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} or {"error": "..."} bodies.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// classifier retries network failures, 429 and 5xx; everything else fails
// immediately.
type classifier struct{}

func (classifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retrier.Fail
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Temporary() {
			return retrier.Retry
		}
		return retrier.Fail
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return retrier.Retry
	}
	return retrier.Fail
}

// countsAsSuccess keeps caller mistakes (4xx, bad token) from tripping
// the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || source.IsAuthError(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return errors.Is(err, context.Canceled)
}
