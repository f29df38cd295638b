package factory

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/mcoot/quizclient/internal/api"
	"github.com/mcoot/quizclient/internal/dependencies/clock"
	"github.com/mcoot/quizclient/internal/services/admin"
	"github.com/mcoot/quizclient/internal/services/auth"
	"github.com/mcoot/quizclient/internal/services/notification"
	"github.com/mcoot/quizclient/internal/services/participation"
	"github.com/mcoot/quizclient/internal/storage"
	"github.com/mcoot/quizclient/internal/storage/file"
	"github.com/mcoot/quizclient/internal/storage/memory"
	redisstorage "github.com/mcoot/quizclient/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// StateFileName is the file used by the file storage inside StateDir
const StateFileName = "state.json"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	API   *api.Client

	// Services
	AuthService             *auth.Service
	NotificationService     *notification.Service
	ParticipationStorage    *participation.Storage
	ParticipationController *participation.Controller
	AdminController         *admin.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// API holds the backend URL, timeout and retry settings
	// If BaseURL is empty, api.DefaultConfig() is used. Otherwise it is taken
	// as given: a zero MaxRetries means no retry, so start from
	// api.DefaultConfig() to keep the single retry.
	API api.Config
	// APIOptions are passed to the API client (optional)
	APIOptions []api.Option
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "file" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// StateDir is the directory of the file storage (required if StorageType is "file")
	StateDir string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeFile:
		if cfg.StateDir == "" {
			return nil, errors.New("StateDir required when StorageType is file")
		}
		store = file.New(filepath.Join(cfg.StateDir, StateFileName))
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'file' or 'redis'")
	}

	apiCfg := cfg.API
	if apiCfg.BaseURL == "" {
		apiCfg = api.DefaultConfig()
	}
	client := api.NewClient(apiCfg, logger, cfg.APIOptions...)

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), client, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, client *api.Client, authCfg auth.Config, logger *slog.Logger) *App {
	authService := auth.New(store, clk, authCfg, logger)
	notifications := notification.New(clk, logger)
	participationStorage := participation.NewStorage(store)
	participationController := participation.NewController(client, notifications, participationStorage, logger)
	adminController := admin.NewController(client, authService, notifications, logger)

	return &App{
		Storage:                 store,
		Clock:                   clk,
		API:                     client,
		AuthService:             authService,
		NotificationService:     notifications,
		ParticipationStorage:    participationStorage,
		ParticipationController: participationController,
		AdminController:         adminController,
	}
}

// Close releases resources held by the storage backend
func (a *App) Close() error {
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
