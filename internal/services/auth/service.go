package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/quizclient/internal/dependencies/clock"
	"github.com/mcoot/quizclient/internal/model"
	"github.com/mcoot/quizclient/internal/storage"
)

// Storage keys for the admin session
const (
	TokenKey   = "adminToken"
	ExpiresKey = "adminTokenExpires"
)

// Service persists the admin bearer token and decides whether the admin
// session is still valid. Expiry is checked lazily on read, so it holds
// across process restarts.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth storage service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		logger:          logger,
		sessionDuration: cfg.SessionDuration,
	}
}

// SaveToken stores the token, replacing any previous one. It expires after
// the session duration, or earlier if the token is a JWT whose exp claim
// comes first.
func (s *Service) SaveToken(ctx context.Context, token string) error {
	expiresAt := s.clock.Now().Add(s.sessionDuration)
	if exp, ok := jwtExpiry(token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}

	err := s.storage.SetMulti(ctx, map[string]string{
		TokenKey:   token,
		ExpiresKey: strconv.FormatInt(expiresAt.UnixMilli(), 10),
	})
	if err != nil {
		s.logger.Error("failed to save admin token", slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("admin token saved", slog.Time("expires_at", expiresAt))
	return nil
}

// GetToken returns the stored token if present and unexpired. An expired
// token is purged. Absence is reported with ok=false, not as an error.
func (s *Service) GetToken(ctx context.Context) (token string, ok bool, err error) {
	stored, err := s.load(ctx)
	if err != nil || stored == nil {
		return "", false, err
	}

	if stored.Expired(s.clock.Now()) {
		s.logger.Info("admin token expired", slog.Time("expired_at", stored.ExpiresAt))
		if err := s.ClearToken(ctx); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	return stored.Value, true, nil
}

// ClearToken removes the token and its expiry. Safe to call when nothing is
// stored.
func (s *Service) ClearToken(ctx context.Context) error {
	return s.storage.Delete(ctx, TokenKey, ExpiresKey)
}

// IsAuthenticated reports whether GetToken would return a token
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := s.GetToken(ctx)
	if err != nil {
		s.logger.Warn("failed to read admin token", slog.String("error", err.Error()))
		return false
	}
	return ok
}

// load reads both entries; a missing or malformed half counts as absent
func (s *Service) load(ctx context.Context) (*model.AuthToken, error) {
	token, err := s.storage.Get(ctx, TokenKey)
	if errors.Is(err, model.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rawExpires, err := s.storage.Get(ctx, ExpiresKey)
	if errors.Is(err, model.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if token == "" || rawExpires == "" {
		return nil, nil
	}

	ms, err := strconv.ParseInt(rawExpires, 10, 64)
	if err != nil {
		// Treat as expired so it gets purged
		s.logger.Warn("malformed admin token expiry", slog.String("value", rawExpires))
		ms = 0
	}

	return &model.AuthToken{Value: token, ExpiresAt: time.UnixMilli(ms)}, nil
}

// jwtExpiry extracts the exp claim without verifying the signature. The
// client cannot verify it and only uses it to avoid holding a token the
// server will reject.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
