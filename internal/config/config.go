package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	AllowedOrigin string
	SeedDemoData  bool
	Log           LogConfig
	Redis         RedisConfig
	Auth          AuthConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, file
	File   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StatsTTL time.Duration
}

type AuthConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// Load reads config.toml when present and applies QBODEGA_* environment
// overrides on top, e.g. QBODEGA_REDIS_ADDR for redis.addr.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("QBODEGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Port:          strings.TrimSpace(v.GetString("port")),
		AllowedOrigin: strings.TrimSpace(v.GetString("allowed_origin")),
		SeedDemoData:  v.GetBool("seed_demo_data"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
			File:   v.GetString("log.file"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("redis.addr")),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			StatsTTL: v.GetDuration("redis.stats_ttl"),
		},
		Auth: AuthConfig{
			Secret:         strings.TrimSpace(v.GetString("auth.secret")),
			AccessTokenTTL: v.GetDuration("auth.access_token_ttl"),
		},
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Redis.StatsTTL <= 0 {
		cfg.Redis.StatsTTL = 30 * time.Second
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		cfg.Auth.AccessTokenTTL = 8 * time.Hour
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("allowed_origin", "http://127.0.0.1:3000")
	v.SetDefault("seed_demo_data", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/qbodega.log")

	// Empty address disables the Redis stats cache.
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stats_ttl", "30s")

	// No default secret: the server refuses to start without one.
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.access_token_ttl", "8h")
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
