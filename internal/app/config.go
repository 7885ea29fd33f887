package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the drive gateway.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	SFTP       SFTPConfig       `mapstructure:"sftp"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFormat       string          `mapstructure:"log_format"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64           `mapstructure:"max_upload_bytes"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds requests per client and route. Zero requests disables limiting.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// SFTPConfig describes the remote server every drive operation targets.
type SFTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	PrivateKey     string        `mapstructure:"private_key"`
	PrivateKeyFile string        `mapstructure:"private_key_file"`
	Passphrase     string        `mapstructure:"passphrase"`
	Timeout        time.Duration `mapstructure:"timeout"`
	KnownHosts     string        `mapstructure:"known_hosts"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	ReapSchedule   string        `mapstructure:"reap_schedule"`
}

// CacheConfig configures state shared between gateway replicas.
type CacheConfig struct {
	Redis RedisSettings `mapstructure:"redis"`
}

// RedisSettings points the rate limiter at a Redis server. When disabled, or when the
// server cannot be reached at startup, counters stay in process memory.
type RedisSettings struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TLS       bool          `mapstructure:"tls"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthConfig captures gateway authentication settings. An empty secret disables auth.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// Enabled reports whether bearer tokens are required on the drive routes.
func (c AuthConfig) Enabled() bool {
	return strings.TrimSpace(c.JWT.Secret) != ""
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("SFTPDRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_upload_bytes", 64<<20)
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("sftp.port", 22)
	v.SetDefault("sftp.timeout", "10s")
	v.SetDefault("sftp.idle_timeout", "0s")
	v.SetDefault("sftp.reap_schedule", "@every 1m")

	v.SetDefault("auth.jwt.issuer", "sftpdrive")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.redis.key_prefix", "sftpdrive:")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
