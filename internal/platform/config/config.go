// Package config loads service configuration from the environment, with an
// optional YAML file named by CONFIG_PATH. Environment values win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPConfig struct {
	Addr            string        `yaml:"addr"             env:"HTTP_ADDR"             env-default:":8080"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     string        `yaml:"cors_origins"     env:"CORS_ALLOWED_ORIGINS"`
}

type GRPCConfig struct {
	Addr               string `yaml:"addr"                 env:"GRPC_ADDR"                 env-default:":9090"`
	TrustForwardedUser bool   `yaml:"trust_forwarded_user" env:"GRPC_TRUST_FORWARDED_USER" env-default:"false"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"       env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	Migrate  bool   `yaml:"migrate"   env:"DB_MIGRATE"   env-default:"true"`
}

type NATSConfig struct {
	URL string `yaml:"url" env:"NATS_URL"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"JWT_ISSUER"`
}

// ThreadsConfig holds paging, content and index policy.
type ThreadsConfig struct {
	DefaultPageLimit int `yaml:"default_page_limit" env:"THREADS_DEFAULT_PAGE_LIMIT" env-default:"20"`
	MaxPageLimit     int `yaml:"max_page_limit"     env:"THREADS_MAX_PAGE_LIMIT"     env-default:"100"`
	CollapseDepth    int `yaml:"collapse_depth"     env:"THREADS_COLLAPSE_DEPTH"     env-default:"4"`
	MaxContentRunes  int `yaml:"max_content_runes"  env:"THREADS_MAX_CONTENT_RUNES"  env-default:"5000"`
	IndexCacheSize   int `yaml:"index_cache_size"   env:"THREADS_INDEX_CACHE_SIZE"   env-default:"10000"`
}

type AppConfig struct {
	ServiceName string         `yaml:"service_name" env:"SERVICE_NAME"`
	Env         string         `yaml:"env"          env:"APP_ENV"   env-default:"development"`
	LogLevel    string         `yaml:"log_level"    env:"LOG_LEVEL" env-default:"info"`
	HTTP        HTTPConfig     `yaml:"http"`
	GRPC        GRPCConfig     `yaml:"grpc"`
	Database    DatabaseConfig `yaml:"database"`
	NATS        NATSConfig     `yaml:"nats"`
	Auth        AuthConfig     `yaml:"auth"`
	Threads     ThreadsConfig  `yaml:"threads"`
}

// IsProduction reports whether APP_ENV selects production, where every
// backing service is mandatory.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func Load() (AppConfig, error) {
	var cfg AppConfig

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	if c.ServiceName == "" {
		return errors.New("SERVICE_NAME is required")
	}
	if c.IsProduction() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	t := c.Threads
	if t.MaxPageLimit <= 0 || t.DefaultPageLimit <= 0 || t.DefaultPageLimit > t.MaxPageLimit {
		return fmt.Errorf("THREADS_DEFAULT_PAGE_LIMIT (%d) must be in 1..THREADS_MAX_PAGE_LIMIT (%d)", t.DefaultPageLimit, t.MaxPageLimit)
	}
	if t.CollapseDepth <= 0 || t.MaxContentRunes <= 0 || t.IndexCacheSize <= 0 {
		return errors.New("THREADS_COLLAPSE_DEPTH, THREADS_MAX_CONTENT_RUNES and THREADS_INDEX_CACHE_SIZE must be positive")
	}
	return nil
}
