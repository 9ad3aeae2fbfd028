package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	apperrors "social-graph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string // Overrides the Env default when set

	// Neo4j
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	Neo4jDatabase       string
	Neo4jMaxPoolSize    int
	Neo4jAcquireTimeout time.Duration

	// Engine
	QueryTimeout     time.Duration // Upper bound for a single graph query
	BatchConcurrency int           // Slugs mutated in parallel by one follow/unfollow batch
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", ""),
		Neo4jMaxPoolSize:    getEnvInt("NEO4J_MAX_POOL_SIZE", 50),
		Neo4jAcquireTimeout: getEnvDuration("NEO4J_ACQUIRE_TIMEOUT", 30*time.Second),
		QueryTimeout:        getEnvDuration("QUERY_TIMEOUT", 10*time.Second),
		BatchConcurrency:    getEnvInt("BATCH_CONCURRENCY", 4),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.Neo4jMaxPoolSize < 1 {
		return apperrors.NewConfigValidationFailed("NEO4J_MAX_POOL_SIZE", "must be at least 1")
	}
	if c.QueryTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("QUERY_TIMEOUT", "must be positive")
	}
	if c.BatchConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("BATCH_CONCURRENCY", "must be at least 1")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
