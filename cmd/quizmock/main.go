// Command quizmock runs the in-memory quiz backend for local use of quizctl.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mcoot/quizclient/internal/testutil/fakebackend"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := fakebackend.DefaultServeConfig()
	if addr := os.Getenv("QUIZMOCK_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	backend := fakebackend.New(os.Getenv("QUIZMOCK_ADMIN_PASSWORD"))

	// QUIZMOCK_SEED="0,2,1" seeds three questions with those correct answers
	if seed := os.Getenv("QUIZMOCK_SEED"); seed != "" {
		var correct []int
		for _, part := range strings.Split(seed, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 || n > 3 {
				logger.Error("invalid QUIZMOCK_SEED", slog.String("value", seed))
				os.Exit(1)
			}
			correct = append(correct, n)
		}
		backend.SeedQuiz(correct...)
		logger.Info("quiz seeded", slog.Int("questions", len(correct)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := backend.Serve(ctx, cfg, logger, nil); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
