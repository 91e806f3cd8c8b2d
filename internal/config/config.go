package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	redisstorage "github.com/mcoot/rpsmatch/internal/storage/redis"
	sqlitestorage "github.com/mcoot/rpsmatch/internal/storage/sqlite"
)

// Storage types
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Config is the server's full configuration
type Config struct {
	Game     GameConfig    `yaml:"game"`
	HTTP     HTTPConfig    `yaml:"http"`
	Storage  StorageConfig `yaml:"storage"`
	Events   EventsConfig  `yaml:"events"`
	LogLevel string        `yaml:"log_level"`
}

// GameConfig configures the game listener
type GameConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// HTTPConfig configures the admin API and WebSocket endpoint
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// StorageConfig selects and configures the ledger backend
type StorageConfig struct {
	Type   string               `yaml:"type"`
	Redis  redisstorage.Config  `yaml:"redis"`
	SQLite sqlitestorage.Config `yaml:"sqlite"`
}

// EventsConfig configures the match event feed. An empty URL disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Game: GameConfig{
			Host:         "0.0.0.0",
			Port:         5555,
			WriteTimeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Host:    "",
			Port:    8080,
		},
		Storage: StorageConfig{
			Type:   StorageTypeSQLite,
			Redis:  redisstorage.DefaultConfig(),
			SQLite: sqlitestorage.DefaultConfig(),
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty) and then environment overrides
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if val := getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) error {
		val := getenv(key)
		if val == "" {
			return nil
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("RPS_HOST", &cfg.Game.Host)
	if err := setInt("RPS_PORT", &cfg.Game.Port); err != nil {
		return err
	}
	if err := setInt("RPS_HTTP_PORT", &cfg.HTTP.Port); err != nil {
		return err
	}
	if val := getenv("RPS_WRITE_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("RPS_WRITE_TIMEOUT: %w", err)
		}
		cfg.Game.WriteTimeout = d
	}
	setString("STORAGE_TYPE", &cfg.Storage.Type)
	setString("REDIS_URL", &cfg.Storage.Redis.URL)
	setString("SQLITE_PATH", &cfg.Storage.SQLite.Path)
	setString("NATS_URL", &cfg.Events.NATSURL)
	setString("LOG_LEVEL", &cfg.LogLevel)
	return nil
}

// Validate reports every problem found in the configuration, joined with
// errors.Join. Load calls it before returning.
func (c Config) Validate() error {
	var errs []error
	if c.Game.Port < 0 || c.Game.Port > 65535 {
		errs = append(errs, fmt.Errorf("game port %d out of range", c.Game.Port))
	}
	if c.HTTP.Enabled && (c.HTTP.Port < 0 || c.HTTP.Port > 65535) {
		errs = append(errs, fmt.Errorf("http port %d out of range", c.HTTP.Port))
	}
	if c.Game.WriteTimeout < 0 {
		errs = append(errs, errors.New("write timeout must not be negative"))
	}

	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("redis url required when storage type is redis"))
		}
	case StorageTypeSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite path required when storage type is sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel converts a level name into a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(name)))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}
