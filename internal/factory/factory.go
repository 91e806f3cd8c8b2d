package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/rpsmatch/internal/config"
	"github.com/mcoot/rpsmatch/internal/dependencies/clock"
	"github.com/mcoot/rpsmatch/internal/dependencies/random"
	"github.com/mcoot/rpsmatch/internal/events"
	"github.com/mcoot/rpsmatch/internal/session"
	"github.com/mcoot/rpsmatch/internal/storage"
	"github.com/mcoot/rpsmatch/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsmatch/internal/storage/redis"
	sqlitestorage "github.com/mcoot/rpsmatch/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Ledger storage.Ledger

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Publisher events.Publisher

	// Session engine
	Registry    *session.Registry
	Coordinator *session.Coordinator
	Handler     *session.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the ledger backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds database settings (required if StorageType is "sqlite")
	SQLiteConfig *sqlitestorage.Config
	// NATSURL enables the match event feed when non-empty
	NATSURL string
}

// FromConfig maps the server configuration onto factory settings
func FromConfig(cfg config.Config, logger *slog.Logger) Config {
	return Config{
		Logger:       logger,
		StorageType:  cfg.Storage.Type,
		RedisConfig:  &cfg.Storage.Redis,
		SQLiteConfig: &cfg.Storage.SQLite,
		NATSURL:      cfg.Events.NATSURL,
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	ledger, err := newLedger(cfg)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			_ = ledger.Close()
			return nil, err
		}
		publisher = natsPublisher
	}

	return newWithDependencies(ledger, clock.New(), random.New(), publisher, logger), nil
}

func newLedger(cfg Config) (storage.Ledger, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		return memory.New(), nil
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, nil
	case config.StorageTypeSQLite:
		if cfg.SQLiteConfig == nil {
			return nil, errors.New("SQLiteConfig required when StorageType is sqlite")
		}
		store, err := sqlitestorage.New(*cfg.SQLiteConfig)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	ledger storage.Ledger,
	clk clock.Clock,
	rnd random.Random,
	publisher events.Publisher,
	logger *slog.Logger,
) *App {
	registry := session.NewRegistry(rnd, logger)
	coordinator := session.NewCoordinator(ledger, registry, clk, publisher, logger)
	handler := session.NewHandler(coordinator, logger)

	return &App{
		Ledger:      ledger,
		Clock:       clk,
		Random:      rnd,
		Publisher:   publisher,
		Registry:    registry,
		Coordinator: coordinator,
		Handler:     handler,
	}
}

// Close releases the event feed and the ledger
func (a *App) Close() error {
	return errors.Join(a.Publisher.Close(), a.Ledger.Close())
}
