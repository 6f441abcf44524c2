package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultDatabaseURI is used when no connection string is configured.
const DefaultDatabaseURI = "mongodb://127.0.0.1:27017/socialNetworkDB"

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the document store. The URI scheme picks the
// backend: mongodb:// for MongoDB, postgres:// for PostgreSQL, sqlite:// or
// file: for SQLite.
type DatabaseConfig struct {
	URI     string        `mapstructure:"uri"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables the read-through entity cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// RateLimitConfig is a per-client token bucket; RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// ReconcileConfig schedules the dangling-reference repair pass inside the
// server. Interval <= 0 disables it.
type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads config.yaml from . or ./config (optional) and the environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads the given config file, or searches the default paths when
// path is empty. Environment variables override file values, e.g.
// SERVER_PORT or REDIS_ADDR; MONGO_URI and PORT are also honoured.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.uri", "MONGO_URI", "DATABASE_URI")
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if strings.TrimSpace(cfg.Database.URI) == "" {
		cfg.Database.URI = DefaultDatabaseURI
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.uri", DefaultDatabaseURI)
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "social-graph")

	v.SetDefault("ratelimit.rps", 50)
	v.SetDefault("ratelimit.burst", 100)

	v.SetDefault("reconcile.interval", 0)
}
