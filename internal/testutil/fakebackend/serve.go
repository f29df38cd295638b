package fakebackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mcoot/quizclient/internal/middleware"
)

// ServeConfig holds configuration for running the backend standalone
type ServeConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServeConfig listens where the client looks by default
func DefaultServeConfig() ServeConfig {
	return ServeConfig{
		Addr:            "localhost:5000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Serve runs the backend on cfg.Addr until ctx is cancelled, then shuts it
// down gracefully. ready, if non-nil, receives the bound address.
func (s *Server) Serve(ctx context.Context, cfg ServeConfig, logger *slog.Logger, ready chan<- string) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	server := &http.Server{
		Handler:      middleware.Recovery(logger)(s),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("fake backend started", slog.String("addr", addr))
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("fake backend stopped")
	return nil
}
