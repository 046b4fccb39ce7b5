package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	t.Setenv("SWEEP_ENABLED", "")
	t.Setenv("RESERVATION_TZ", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 60*time.Second, cfg.SweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.True(t, cfg.SweepEnabled)
	assert.Equal(t, time.UTC, cfg.ReservationTZ)
	assert.True(t, cfg.Cache.Methods["GET"])
}

func TestLoad_MySQLRequiresDB(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.NotContains(t, err.Error(), "DB_HOST")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("RESERVATION_TZ", "Mars/Olympus")
	t.Setenv("SWEEP_INTERVAL", "-5s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "RESERVATION_TZ")
	assert.Contains(t, err.Error(), "SWEEP_INTERVAL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "5s")
	t.Setenv("SWEEP_ENABLED", "off")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@broker:5672/")
	t.Setenv("RESERVATION_TZ", "UTC")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.False(t, cfg.SweepEnabled)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.AMQPURL)
	assert.Equal(t, "UTC", cfg.ReservationTZ.String())
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 2*time.Second, rl.RefillInterval)
	assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PLANNER_DOTENV_PROBE=from-file\nAPP_PORT=9999\n"), 0o600))
	t.Setenv("APP_PORT", "7000")
	t.Cleanup(func() { os.Unsetenv("PLANNER_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("PLANNER_DOTENV_PROBE"))
	assert.Equal(t, "7000", os.Getenv("APP_PORT"), "environment wins over the file")
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NotNil(t, rdb)
	_ = rdb.Close()

	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: mr.Addr()}))
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_DB", "3")
	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.Equal(t, 3, rc.DB)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", LoadRedisConfig().Addr)
}
