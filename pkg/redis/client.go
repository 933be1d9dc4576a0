package redis

import (
	"context"
	"time"

	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type client struct {
	logger    *logger.Logger
	config    *Config
	universal redis.UniversalClient
}

// NewClient creates a new Redis client with the provided logger and configuration.
// Connect must be called before any other operation.
func NewClient(logger *logger.Logger, config *Config) Client {
	return &client{
		logger: logger,
		config: config,
	}
}

func (c *client) validate() error {
	if c.config == nil {
		return errors.New(errors.RedisConfigError, "Redis config is nil", "connect")
	}
	if len(c.config.Addrs) == 0 {
		return errors.New(errors.RedisConfigError, "Redis addresses are empty", "connect")
	}
	if c.config.Mode != Standalone && c.config.Mode != Cluster {
		return errors.New(errors.RedisConfigError, "Invalid Redis mode", "connect")
	}
	if c.config.ConnectTimeout <= 0 {
		return errors.New(errors.RedisConfigError, "Invalid Redis connect timeout", "connect")
	}
	if c.config.PoolSize <= 0 {
		return errors.New(errors.RedisConfigError, "Invalid Redis pool size", "connect")
	}
	if c.config.MaxRetries < 0 {
		return errors.New(errors.RedisConfigError, "Invalid Redis max retries", "connect")
	}
	return nil
}

func (c *client) Connect(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}

	switch c.config.Mode {
	case Standalone:
		c.universal = redis.NewClient(&redis.Options{
			Addr:            c.config.Addrs[0],
			Username:        c.config.Username,
			Password:        c.config.Password,
			DB:              c.config.DB,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
		})
	case Cluster:
		c.universal = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           c.config.Addrs,
			Username:        c.config.Username,
			Password:        c.config.Password,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
		})
	}

	if err := c.universal.Ping(ctx).Err(); err != nil {
		return errors.NewTracer(string(errors.RedisConnectionError)).Wrap(err)
	}

	c.logger.Info("Connected to Redis",
		logger.Field{Key: "mode", Value: c.config.Mode},
		logger.Field{Key: "addrs", Value: c.config.Addrs},
	)
	return nil
}

func (c *client) Disconnect(ctx context.Context) error {
	if c.universal == nil {
		return nil
	}
	return c.universal.Close()
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.universal.Ping(ctx).Err(); err != nil {
		return errors.NewTracer(string(errors.RedisPingError)).Wrap(err)
	}
	return nil
}

func (c *client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.universal.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.NewTracer(string(errors.RedisGetError)).Wrap(err)
	}
	return val, nil
}

func (c *client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := c.universal.Set(ctx, c.key(key), value, expiration).Err(); err != nil {
		return errors.NewTracer(string(errors.RedisSetError)).Wrap(err)
	}
	return nil
}

func (c *client) Del(ctx context.Context, keys ...string) (int64, error) {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	deleted, err := c.universal.Del(ctx, prefixed...).Result()
	if err != nil {
		return 0, errors.NewTracer(string(errors.RedisDelError)).Wrap(err)
	}
	return deleted, nil
}

func (c *client) key(k string) string {
	return c.config.PrefixKey + k
}
