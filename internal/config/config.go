package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is where the sqlite store lives unless configured.
const DefaultDatabasePath = "$HOME/.local/share/finsight/finsight.db"

// Config is the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// APIConfig configures the inference service client.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	Retry           RetryConfig   `mapstructure:"retry"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec" validate:"gte=0"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" validate:"gte=0"`
	MaxConnsPerHost int           `mapstructure:"max_conns_per_host" validate:"gte=0"`
}

// RetryConfig configures the opt-in retry policy for idempotent calls.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay" validate:"gte=0"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=none memory redis"`
	Redis   RedisConfig   `mapstructure:"redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// Enabled reports whether responses should be cached at all.
func (c CacheConfig) Enabled() bool {
	return c.Backend != "none" && c.TTL > 0
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	UseTLS   bool   `mapstructure:"use_tls"`
	Enabled  bool   `mapstructure:"-"`
}

// StorageConfig configures the snapshot and history store.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=none sqlite postgres mysql"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver none"`
}

// Enabled reports whether a store is configured.
func (s StorageConfig) Enabled() bool {
	return s.Driver != "none"
}

// ServerConfig configures the dashboard backend.
type ServerConfig struct {
	Addr string    `mapstructure:"addr" validate:"required"`
	Mode string    `mapstructure:"mode" validate:"oneof=debug release test"`
	TLS  TLSConfig `mapstructure:"tls"`
}

// TLSConfig enables HTTPS with a self-signed certificate kept in CertDir.
type TLSConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	CertDir string   `mapstructure:"cert_dir"`
	Hosts   []string `mapstructure:"hosts"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// DashboardConfig tunes the page views.
type DashboardConfig struct {
	SampleSize    int   `mapstructure:"sample_size" validate:"min=1,max=100000"`
	SampleSeed    int64 `mapstructure:"sample_seed"`
	AnalyticsDays int   `mapstructure:"analytics_days" validate:"min=1,max=365"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate_limit_per_sec", 0)
	v.SetDefault("api.rate_limit_burst", 1)
	v.SetDefault("api.max_conns_per_host", 32)
	v.SetDefault("api.retry.max_attempts", 1)
	v.SetDefault("api.retry.initial_delay", 200*time.Millisecond)
	v.SetDefault("api.retry.max_delay", 5*time.Second)

	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl", 0)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", DefaultDatabasePath)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_dir", "")
	v.SetDefault("server.tls.hosts", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("dashboard.sample_size", 1000)
	v.SetDefault("dashboard.sample_seed", 42)
	v.SetDefault("dashboard.analytics_days", 30)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Cache.Redis.Enabled = cfg.Cache.Backend == "redis"
	if cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = ExpandPath(cfg.Storage.DSN)
	}
	if cfg.Server.TLS.CertDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
		}
		cfg.Server.TLS.CertDir = filepath.Join(dir, "certs")
	}
	cfg.Server.TLS.CertDir = ExpandPath(cfg.Server.TLS.CertDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value()))
		}
	}

	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, "; "))
}
