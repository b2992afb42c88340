package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	MongoURL   string
	MongoDB    string
	RedisURL   string
	// DefaultTimeLimit applies when a question is asked without an explicit
	// time limit.
	DefaultTimeLimit time.Duration
	// ExpirySweepInterval controls how often the expiry worker scans for
	// overdue active questions.
	ExpirySweepInterval time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "pretty"),
		MongoURL:            getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "classpulse"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DefaultTimeLimit:    time.Duration(getEnvInt("DEFAULT_TIME_LIMIT_SEC", 60)) * time.Second,
		ExpirySweepInterval: time.Duration(getEnvInt("EXPIRY_SWEEP_INTERVAL_SEC", 5)) * time.Second,
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
