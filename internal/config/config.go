package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "LUXE"

type Config struct {
	Port           string        `default:"8080"`
	AllowedOrigin  string        `split_words:"true" default:"http://127.0.0.1:3000"`
	DatabaseURL    string        `split_words:"true"`
	RedisAddr      string        `split_words:"true"`
	RedisPassword  string        `split_words:"true"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	SessionBackend string        `split_words:"true" default:"memory"`
	BoltPath       string        `split_words:"true" default:"luxe-session.db"`
	AuthSecret     string        `split_words:"true"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"8h"`
	AuthMode       string        `split_words:"true" default:"mock"`
	Credentials    []string
	MarketCacheTTL time.Duration `envconfig:"MARKET_CACHE_TTL" default:"30s"`
	LogLevel       string        `split_words:"true" default:"info"`
	LogFormat      string        `split_words:"true" default:"json"`
	LogFile        string        `split_words:"true"`
	StaticDir      string        `split_words:"true"`
}

// Load reads LUXE_* variables. Values from envFile, when it exists, fill
// in anything the process environment does not already set.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.SessionBackend {
	case "memory", "bolt":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("LUXE_REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("LUXE_SESSION_BACKEND must be memory, redis or bolt, got %q", c.SessionBackend)
	}
	switch c.AuthMode {
	case "mock", "credentials":
	default:
		return fmt.Errorf("LUXE_AUTH_MODE must be mock or credentials, got %q", c.AuthMode)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("LUXE_ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
