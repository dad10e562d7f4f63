// Package config reads process configuration from environment variables
// with defaults and no file-based config format.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for cmd/server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains Postgres connection settings shared by the sqlx
// store and the gorm audit log.
type DatabaseConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig contains Redis connection settings for internal/cache.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	Database     int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
}

// JWTConfig contains bearer-token settings for internal/authn.
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// RateLimitConfig contains the per-API-key request throttle for
// POST /v1/scripts/{id}/run.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("CRYSTALGEO_SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("CRYSTALGEO_SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("CRYSTALGEO_SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("CRYSTALGEO_SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("CRYSTALGEO_SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("CRYSTALGEO_DB_HOST", "localhost"),
			Port:            getEnvAsInt("CRYSTALGEO_DB_PORT", 5432),
			Username:        getEnv("CRYSTALGEO_DB_USER", "crystalgeo"),
			Password:        os.Getenv("CRYSTALGEO_DB_PASSWORD"),
			Database:        getEnv("CRYSTALGEO_DB_NAME", "crystalgeo"),
			SSLMode:         getEnv("CRYSTALGEO_DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("CRYSTALGEO_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("CRYSTALGEO_DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("CRYSTALGEO_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("CRYSTALGEO_REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("CRYSTALGEO_REDIS_PORT", 6379),
			Password:     os.Getenv("CRYSTALGEO_REDIS_PASSWORD"),
			Database:     getEnvAsInt("CRYSTALGEO_REDIS_DB", 0),
			PoolSize:     getEnvAsInt("CRYSTALGEO_REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvAsDuration("CRYSTALGEO_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("CRYSTALGEO_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("CRYSTALGEO_REDIS_WRITE_TIMEOUT", 3*time.Second),
			TTL:          getEnvAsDuration("CRYSTALGEO_REDIS_TTL", 10*time.Minute),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("CRYSTALGEO_JWT_SECRET"),
			Issuer: getEnv("CRYSTALGEO_JWT_ISSUER", "crystalgeo"),
			Expiry: getEnvAsDuration("CRYSTALGEO_JWT_EXPIRY", 1*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("CRYSTALGEO_RATE_LIMIT_RPS", 5.0),
			Burst:             getEnvAsInt("CRYSTALGEO_RATE_LIMIT_BURST", 10),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("CRYSTALGEO_JWT_SECRET is required")
	}
	if len(cfg.JWT.Secret) < 32 {
		return fmt.Errorf("CRYSTALGEO_JWT_SECRET must be at least 32 characters")
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit requests-per-second must be positive")
	}
	return nil
}

// DSN builds the Postgres connection string shared by the sqlx store and
// the gorm audit log.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode,
	)
}

// Address returns the Redis connection address.
func (c RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the HTTP server listen address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
