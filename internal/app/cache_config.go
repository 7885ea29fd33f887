package app

import (
	"strings"

	"github.com/charlesng35/sftpdrive/internal/cache"
)

// RedisClientConfig converts RedisSettings into the parameters expected by cache.NewRedisClient.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:   strings.TrimSpace(c.Redis.Address),
		Username:  c.Redis.Username,
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		TLS:       c.Redis.TLS,
		Timeout:   c.Redis.Timeout,
		KeyPrefix: c.Redis.KeyPrefix,
	}
}
