package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/middleware"
)

// RequestIDHeader carries a per-call id so client and server logs line up
const RequestIDHeader = "X-Request-ID"

// Config holds configuration for the API client
type Config struct {
	BaseURL string

	// Timeout bounds each attempt
	Timeout time.Duration

	// MaxRetries is the retry budget for retryable failures. Zero means a
	// single attempt; start from DefaultConfig to get the one retry.
	MaxRetries uint64

	// RetryDelay is the fixed wait before a retry
	RetryDelay time.Duration
}

// DefaultConfig returns the client defaults: 10s timeout, at most one retry
// after 1s
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:5000",
		Timeout:    10 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Second,
	}
}

// Response is a successful API response
type Response struct {
	Status int
	Data   json.RawMessage
}

// Client is the only component that talks to the quiz backend. Every failure
// it returns is an *apierr.Error.
type Client struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	newTimer func() backoff.Timer
	quizInfo singleflight.Group
}

// Option customises a Client
type Option func(*Client)

// WithTransport sets the underlying round tripper (wrapped with logging)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = middleware.Logging(c.logger)(rt)
	}
}

// WithRetryTimer replaces the timer used to wait between attempts
func WithRetryTimer(newTimer func() backoff.Timer) Option {
	return func(c *Client) {
		c.newTimer = newTimer
	}
}

// NewClient creates a new API client
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cfg:     cfg,
		logger:  logger,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: middleware.Logging(logger)(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs a request with the configured retry budget. token, when not
// empty, is sent as a bearer credential.
func (c *Client) Call(ctx context.Context, method, resource string, data any, token string) (*Response, error) {
	return c.CallWithRetries(ctx, c.cfg.MaxRetries, method, resource, data, token)
}

// CallWithRetries performs a request that is retried at most retries times,
// only on transport failures and 5xx statuses, each after the fixed delay.
// Every retry reuses the same method, resource, body and token.
func (c *Client) CallWithRetries(ctx context.Context, retries uint64, method, resource string, data any, token string) (*Response, error) {
	body, err := encodeBody(data)
	if err != nil {
		return nil, c.fail(method, resource, 0, apierr.NewConfig(err))
	}

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		resp, err := c.do(ctx, method, resource, body, token)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || !err.Retryable() {
			return nil, backoff.Permanent(c.fail(method, resource, attempt, err))
		}
		return nil, c.fail(method, resource, attempt, err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), retries),
		ctx,
	)

	notify := func(err error, wait time.Duration) {
		c.logger.Info("retrying api request",
			slog.String("method", method),
			slog.String("resource", resource),
			slog.Int("attempt", attempt+1),
			slog.Duration("wait", wait),
		)
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}

	resp, err := backoff.RetryNotifyWithTimerAndData(operation, policy, notify, timer)
	if err != nil {
		if _, ok := apierr.As(err); !ok {
			// Context cancelled while waiting to retry
			return nil, apierr.NewTransport(err, errors.Is(err, context.DeadlineExceeded))
		}
		return nil, err
	}
	return resp, nil
}

// do performs a single attempt
func (c *Client) do(ctx context.Context, method, resource string, body []byte, token string) (*Response, *apierr.Error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), c.baseURL+resource, bodyReader)
	if err != nil {
		return nil, apierr.NewConfig(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.NewTransport(err, isTimeout(err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewTransport(err, isTimeout(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierr.FromResponse(resp.StatusCode, statusText(resp), respBody)
	}

	return &Response{Status: resp.StatusCode, Data: respBody}, nil
}

// fail logs a failed attempt and returns err unchanged
func (c *Client) fail(method, resource string, attempt int, err *apierr.Error) error {
	c.logger.Warn("api request failed",
		slog.String("method", method),
		slog.String("resource", resource),
		slog.Int("attempt", attempt),
		slog.String("kind", string(err.Kind)),
		slog.Int("status", err.StatusCode),
		slog.String("error", err.Error()),
	)
	return err
}

func encodeBody(data any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	return json.Marshal(data)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusText strips the numeric prefix from resp.Status ("404 Not Found")
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
