package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/quizclient/internal/api"
	"github.com/mcoot/quizclient/internal/factory"
	redisstorage "github.com/mcoot/quizclient/internal/storage/redis"
)

var (
	cfg *Config
	app *factory.App

	// errOut is the command's error stream, shared by logs and notifications
	errOut io.Writer

	printer *notificationPrinter

	// errReported marks errors already shown to the user
	errReported = errors.New("reported")
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()
	app = nil
	errOut = nil
	printer = nil

	rootCmd := &cobra.Command{
		Use:   "quizctl",
		Short: "Terminal client for the quiz platform",
		Long: `quizctl plays and administers quizzes against the quiz API.

Players can browse the leaderboard and answer the quiz question by question.
Administrators can log in and manage questions and participations. The admin
session and the last score are kept in the configured store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ConfigFile != "" {
				if err := cfg.LoadFile(cfg.ConfigFile, cmd.Flags().Changed); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			errOut = &lockedWriter{w: cmd.ErrOrStderr()}
			a, err := factory.New(factoryConfig(cfg, newLogger(errOut, cfg.Verbose)))
			if err != nil {
				return err
			}
			app = a
			printer = startNotificationPrinter(app.NotificationService, newOutput(cmd))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Quiz API base URL (env: QUIZ_API_URL)")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout (env: QUIZ_TIMEOUT)")
	flags.Uint64Var(&cfg.Retries, "retries", cfg.Retries, "Retries for network and 5xx failures")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "State store: memory, file, redis (env: QUIZ_STORE)")
	flags.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "Directory of the file store (env: QUIZ_STATE_DIR)")
	flags.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the redis store (env: QUIZ_REDIS_URL)")
	flags.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file (env: QUIZ_CONFIG)")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log HTTP traffic to stderr")

	// Add subcommands
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newQuestionCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newAdminCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := LoadDotEnv(".env"); err != nil {
		_, _ = io.WriteString(os.Stderr, err.Error()+"\n")
	}
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

// withApp wraps a command body: notifications are printed as they are
// raised and the store is released afterwards. An error nobody was
// notified about is printed as well.
func withApp(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() { _ = app.Close() }()

		err := run(cmd, args)
		shown := printer.Stop()
		if err == nil {
			return nil
		}
		if shown == 0 {
			newOutput(cmd).PrintError(err)
		}
		return fmt.Errorf("%w: %w", errReported, err)
	}
}

func newOutput(cmd *cobra.Command) *Output {
	if errOut == nil {
		errOut = cmd.ErrOrStderr()
	}
	return NewOutput(cfg.Output, cmd.OutOrStdout(), errOut)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func factoryConfig(c *Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		API: api.Config{
			BaseURL:    c.APIURL,
			Timeout:    c.Timeout,
			MaxRetries: c.Retries,
			RetryDelay: time.Second,
		},
		Logger:      logger,
		StorageType: c.Store,
		StateDir:    c.StateDir,
	}
	if c.Store == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}
