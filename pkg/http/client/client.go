package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen is returned without calling upstream while the breaker is open
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError is returned for upstream 5xx responses
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// callerCanceledError marks a failure caused by the caller's context, which
// says nothing about upstream health
type callerCanceledError struct {
	err error
}

func (e *callerCanceledError) Error() string {
	return e.err.Error()
}

func (e *callerCanceledError) Unwrap() error {
	return e.err
}

func isSuccessful(err error) bool {
	var canceled *callerCanceledError
	return err == nil || errors.As(err, &canceled)
}

type Interface interface {
	Get(ctx context.Context, path string, query url.Values) (*Response, error)
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	GetFunc    func(ctx context.Context, path string, query url.Values) (*Response, error)
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	BreakerName string
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	if opts.BreakerName == "" {
		opts.BreakerName = opts.BaseURL
	}

	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        opts.BreakerName,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: isSuccessful,
		}),
	}
}

// Get performs a single GET attempt. 4xx responses are returned as-is so callers
// can read the provider's error body; 5xx responses count against the breaker.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path, query)
	}

	var fullURL string
	if c.baseURL == "" {
		fullURL = path // If no base URL, treat path as full URL
	} else {
		fullURL = c.baseURL + path
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.do(ctx, fullURL)
		if err != nil && ctx.Err() != nil {
			return nil, &callerCanceledError{err: err}
		}
		return resp, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		var canceled *callerCanceledError
		if errors.As(err, &canceled) {
			return nil, canceled.err
		}
		return nil, err
	}

	return result.(*Response), nil
}

func (c *Client) do(ctx context.Context, fullURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the query string carries API keys; keep it out of error text
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("%s %s%s: %w", urlErr.Op, req.URL.Host, req.URL.Path, urlErr.Err)
		}
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
