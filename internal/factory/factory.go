package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/beforeafter/internal/dependencies/clock"
	"github.com/mcoot/beforeafter/internal/dependencies/random"
	"github.com/mcoot/beforeafter/internal/services/auth"
	"github.com/mcoot/beforeafter/internal/services/catalog"
	"github.com/mcoot/beforeafter/internal/services/play"
	"github.com/mcoot/beforeafter/internal/services/score"
	"github.com/mcoot/beforeafter/internal/services/telemetry"
	"github.com/mcoot/beforeafter/internal/storage"
	"github.com/mcoot/beforeafter/internal/storage/memory"
	redisstorage "github.com/mcoot/beforeafter/internal/storage/redis"
	"github.com/mcoot/beforeafter/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	CatalogService *catalog.Service
	Ledger         *score.Ledger
	Telemetry      *telemetry.StorageRecorder
	Controller     *play.Controller
	AuthService    *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// CatalogPath is a YAML item file to load at startup (optional)
	// If empty, the built-in catalog is loaded when storage holds no items
	CatalogPath string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, clk, rnd, authCfg, logger)

	if err := app.loadCatalog(ctx, cfg.CatalogPath); err != nil {
		_ = store.Close()
		return nil, err
	}

	return app, nil
}

func openStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// loadCatalog loads path if set, otherwise seeds the built-in catalog into empty storage
func (a *App) loadCatalog(ctx context.Context, path string) error {
	if path != "" {
		_, err := a.CatalogService.LoadFromFile(ctx, path)
		return err
	}

	count, err := a.CatalogService.ItemCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = a.CatalogService.LoadDefault(ctx)
	return err
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) *App {
	// Create services
	catalogService := catalog.New(store, logger)
	ledger := score.New(store, store, logger)
	recorder := telemetry.New(store, clk, logger)
	controller := play.NewController(store, catalogService, ledger, recorder, clk, rnd, logger)
	authService := auth.New(store, clk, logger, authCfg)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		CatalogService: catalogService,
		Ledger:         ledger,
		Telemetry:      recorder,
		Controller:     controller,
		AuthService:    authService,
	}
}
