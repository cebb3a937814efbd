package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Env      string
	LogLevel string

	// Edge function endpoint configuration.
	EdgeBaseURL     string
	EdgeAnonKey     string
	EdgeBearerToken string
	HTTPTimeout     time.Duration

	// Query cache policy.
	CacheStaleTime time.Duration
	CacheMaxIdle   time.Duration

	// Optional Redis snapshot store for the query cache.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		EdgeBaseURL:     strings.TrimSpace(getEnv("EDGE_BASE_URL", "")),
		EdgeAnonKey:     getEnv("EDGE_ANON_KEY", ""),
		EdgeBearerToken: getEnv("EDGE_BEARER_TOKEN", ""),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 20*time.Second),
		CacheStaleTime:  getEnvAsDuration("CACHE_STALE_TIME", 0),
		CacheMaxIdle:    getEnvAsDuration("CACHE_MAX_IDLE", 0),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
