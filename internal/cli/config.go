package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerAddr   string
	APIURL       string
	Output       string
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr:   getEnvOrDefault("RPS_SERVER", "localhost:5555"),
		APIURL:       getEnvOrDefault("RPS_API", "http://localhost:8080"),
		Output:       "text",
		WriteTimeout: 10 * time.Second,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
