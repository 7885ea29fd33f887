package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisTimeout = 5 * time.Second
	defaultKeyPrefix    = "sftpdrive:"
)

// RedisConfig captures the connection parameters for RedisClient.
type RedisConfig struct {
	Address   string
	Username  string
	Password  string
	DB        int
	TLS       bool
	Timeout   time.Duration
	KeyPrefix string
}

// Commander is the subset of go-redis client methods used by RedisClient.
type Commander interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// RedisClient keeps rate limit windows in Redis.
type RedisClient struct {
	prefix string
	client Commander
}

var _ Counter = (*RedisClient)(nil)

// NewRedisClient connects and pings the server so misconfiguration surfaces at startup.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := NewRedisClientWith(redis.NewClient(opts), cfg.KeyPrefix)
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisClientWith wraps an existing go-redis client. An empty prefix uses the default.
func NewRedisClientWith(client Commander, prefix string) *RedisClient {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisClient{prefix: prefix, client: client}
}

// Ping round-trips a PING command.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// IncrementWithTTL implements Counter by pipelining INCR and PTTL. The expiry is set on the
// first increment, and again for a key left without one, for example after a crash
// between INCR and PEXPIRE.
func (c *RedisClient) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	key = c.prefixed(key)

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && incr.Err() != nil {
		return 0, 0, fmt.Errorf("redis: incr %s: %w", key, incr.Err())
	}

	count := incr.Val()
	ttl, ttlErr := pttl.Result()
	if ttlErr != nil {
		return count, window, nil
	}

	if count == 1 || ttl == -1 {
		if err := c.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis: pexpire %s: %w", key, err)
		}
		return count, window, nil
	}
	if ttl < 0 {
		return count, window, nil
	}
	return count, ttl, nil
}

func (c *RedisClient) prefixed(key string) string {
	return normalizeKey(c.prefix + key)
}

// normalizeKey collapses repeated colons so prefixes compose cleanly.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	prevColon := false
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch == ':' && prevColon {
			continue
		}
		prevColon = ch == ':'
		b.WriteByte(ch)
	}
	return b.String()
}
