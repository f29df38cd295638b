package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req)
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Logging creates a client-side transport wrapper that logs every outgoing
// HTTP request. The Authorization header is never logged.
func Logging(logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(req)

			duration := time.Since(start)
			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("request_id", req.Header.Get("X-Request-ID")),
				slog.Bool("authenticated", req.Header.Get("Authorization") != ""),
				slog.Duration("duration", duration),
			}

			if err != nil {
				logger.Warn("http request failed", append(attrs, slog.String("error", err.Error()))...)
				return resp, err
			}

			logger.Debug("http request",
				append(attrs,
					slog.Int("status", resp.StatusCode),
					slog.Int64("size", resp.ContentLength),
				)...,
			)
			return resp, nil
		})
	}
}
