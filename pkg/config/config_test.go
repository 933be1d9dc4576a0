package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muhammadchandra19/matcha/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, Load(cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "BTC-USD", cfg.Pair)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPConfig.Addr)
	assert.Equal(t, 1024, cfg.EngineConfig.MailboxSize)
	assert.Equal(t, 30*time.Second, cfg.EngineConfig.SnapshotInterval)
	assert.False(t, cfg.KafkaConfig.Enabled())
	assert.False(t, cfg.KafkaConfig.IntakeEnabled())
	assert.Equal(t, "matcha-engine", cfg.KafkaConfig.GroupID)
	assert.False(t, cfg.RedisConfig.Enabled())
	assert.Equal(t, redis.Standalone, cfg.RedisConfig.Mode)
	assert.Equal(t, SnapshotBackendRedis, cfg.EngineConfig.SnapshotBackend)
	assert.Equal(t, 5432, cfg.PostgresConfig.Port)
	assert.Equal(t, "matcha", cfg.PostgresConfig.Database)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PAIR", "ETH-USD")
	t.Setenv("ENGINE_MAILBOX_SIZE", "8")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("REDIS_ADDRS", "redis:6379")
	t.Setenv("ENGINE_SNAPSHOT_BACKEND", "postgres")
	t.Setenv("POSTGRES_URL", "postgres://svc@db/matcha")

	cfg := &Config{}
	require.NoError(t, Load(cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "ETH-USD", cfg.Pair)
	assert.Equal(t, 8, cfg.EngineConfig.MailboxSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaConfig.Brokers)
	assert.True(t, cfg.KafkaConfig.Enabled())
	assert.False(t, cfg.KafkaConfig.IntakeEnabled())
	assert.Equal(t, []string{"redis:6379"}, cfg.RedisConfig.Addrs)
	assert.Equal(t, SnapshotBackendPostgres, cfg.EngineConfig.SnapshotBackend)
	assert.Equal(t, "postgres://svc@db/matcha", cfg.PostgresConfig.URL)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nHTTP_ADDR=:9090\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("HTTP_ADDR")
	})

	cfg := &Config{}
	require.NoError(t, Load(cfg, path))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPConfig.Addr)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("ENGINE_SNAPSHOT_INTERVAL", "soon")

	assert.Error(t, Load(&Config{}, filepath.Join(t.TempDir(), "missing.env")))
}
