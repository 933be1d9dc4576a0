package redis

import (
	"context"
	"testing"

	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestClient_ConnectValidation(t *testing.T) {
	testCases := []struct {
		name   string
		config func() *Config
	}{
		{
			name:   "nil config",
			config: func() *Config { return nil },
		},
		{
			name:   "no addresses",
			config: DefaultConfig,
		},
		{
			name: "unknown mode",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Addrs = []string{"localhost:6379"}
				cfg.Mode = "sentinel"
				return cfg
			},
		},
		{
			name: "zero pool size",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Addrs = []string{"localhost:6379"}
				cfg.PoolSize = 0
				return cfg
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClient(logger.NewNop(), tc.config())

			err := c.Connect(context.Background())

			assert.True(t, errors.ErrorCodeEquals(err, string(errors.RedisConfigError)))
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	var nilConfig *Config
	assert.False(t, nilConfig.Enabled())
	assert.False(t, DefaultConfig().Enabled())

	cfg := DefaultConfig()
	cfg.Addrs = []string{"localhost:6379"}
	assert.True(t, cfg.Enabled())
}
