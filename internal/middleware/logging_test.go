package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := &http.Client{Transport: Logging(logger)(http.DefaultTransport)}
	req, err := http.NewRequest(http.MethodGet, server.URL+"/quiz-info", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-Request-ID", "req-1")

	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/quiz-info", entry["path"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, true, entry["authenticated"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.NotContains(t, buf.String(), "secret-token")
}

func TestLoggingRecordsTransportFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	failing := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid/quiz-info", nil)
	require.NoError(t, err)

	_, err = Logging(logger)(failing).RoundTrip(req)
	require.Error(t, err)

	assert.Contains(t, buf.String(), "http request failed")
	assert.Contains(t, buf.String(), "connection refused")
}
