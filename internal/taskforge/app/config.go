package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	JWTSecret    string // Required: symmetric HS256 signing secret
	DatabaseFile string // Required: path to the SQLite database file

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var (
	ErrMissingJWTSecret    = errors.New("app: TASKFORGE_JWT_SECRET is not set")
	ErrMissingDatabaseFile = errors.New("app: TASKFORGE_DATABASE_FILE is not set")
)

// LoadConfig reads configuration from the environment. The signing secret
// and the database location have no defaults on purpose: starting without
// them must fail loudly, not limp along with a guessable secret.
func LoadConfig() (Config, error) {
	cfg := Config{
		JWTSecret:           os.Getenv("TASKFORGE_JWT_SECRET"),
		DatabaseFile:        os.Getenv("TASKFORGE_DATABASE_FILE"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	if cfg.DatabaseFile == "" {
		return Config{}, ErrMissingDatabaseFile
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
