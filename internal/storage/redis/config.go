package redis

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string `yaml:"url"`

	// Pool settings
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`

	// HistoryLimit trims each pair's match list to the newest N records.
	// Aggregate scores are kept in a separate counter hash and are unaffected.
	// Zero keeps every record.
	HistoryLimit int64 `yaml:"history_limit"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		HistoryLimit: 1000,
	}
}
