package config

import (
	stderrors "errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/matcha/pkg/postgresql"
	"github.com/muhammadchandra19/matcha/pkg/redis"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and, when
// present, the given .env files (".env" by default).
func Load[T any](cfg T, filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.Parse(cfg)
}

// Config holds the configuration for the application
type Config struct {
	Pair     string `env:"PAIR" envDefault:"BTC-USD"` // Trading pair, e.g., BTC-USD
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPConfig     HTTPConfig        `envPrefix:"HTTP_"`
	EngineConfig   EngineConfig      `envPrefix:"ENGINE_"`
	KafkaConfig    KafkaConfig       `envPrefix:"KAFKA_"`
	RedisConfig    redis.Config      `envPrefix:"REDIS_"`
	PostgresConfig postgresql.Config `envPrefix:"POSTGRES_"`
}

// HTTPConfig holds the configuration for the HTTP adapter.
type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// EngineConfig holds the configuration of the matching core.
type EngineConfig struct {
	MailboxSize      int           `env:"MAILBOX_SIZE" envDefault:"1024"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`

	// SnapshotBackend is one of redis, postgres or none.
	SnapshotBackend string `env:"SNAPSHOT_BACKEND" envDefault:"redis"`
}

// Snapshot backends.
const (
	SnapshotBackendRedis    = "redis"
	SnapshotBackendPostgres = "postgres"
	SnapshotBackendNone     = "none"
)

// KafkaConfig holds the configuration for the match event producer and the
// intent consumer.
type KafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:","`
	Topic        string        `env:"MATCH_TOPIC" envDefault:"matcha.matches"`
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT" envDefault:"10ms"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`

	IntentTopic string `env:"INTENT_TOPIC"`
	GroupID     string `env:"GROUP_ID" envDefault:"matcha-engine"`
}

// Enabled reports whether match events can be published.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// IntakeEnabled reports whether intents are consumed from Kafka.
func (c KafkaConfig) IntakeEnabled() bool {
	return len(c.Brokers) > 0 && c.IntentTopic != ""
}
