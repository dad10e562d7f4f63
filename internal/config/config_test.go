package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CRYSTALGEO_JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CRYSTALGEO_JWT_SECRET", testSecret)
	t.Setenv("CRYSTALGEO_SERVER_PORT", "9999")
	t.Setenv("CRYSTALGEO_DB_HOST", "db.internal")
	t.Setenv("CRYSTALGEO_REDIS_TTL", "30m")
	t.Setenv("CRYSTALGEO_RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 30*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CRYSTALGEO_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("CRYSTALGEO_JWT_SECRET", "too-short")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("CRYSTALGEO_JWT_SECRET", testSecret)
	t.Setenv("CRYSTALGEO_SERVER_PORT", "70000")
	_, err := Load()
	require.Error(t, err)
}

func TestDSNFormat(t *testing.T) {
	c := DatabaseConfig{
		Host: "localhost", Port: 5432,
		Username: "crystalgeo", Password: "pw",
		Database: "crystalgeo", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=crystalgeo password=pw dbname=crystalgeo sslmode=disable",
		c.DSN())
}
