// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Check   CheckConfig   `mapstructure:"check"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Pool    PoolConfig    `mapstructure:"pool"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CheckConfig governs default check parameters.
type CheckConfig struct {
	MinConfidence     float64 `mapstructure:"min_confidence"`
	URLTimeoutSeconds int     `mapstructure:"url_timeout_seconds"`
	MaxTimeSeconds    int     `mapstructure:"max_time_seconds"`
}

// HTTPConfig configures outbound fetch behavior.
type HTTPConfig struct {
	UserAgent   string  `mapstructure:"user_agent"`
	DomainRPS   float64 `mapstructure:"domain_rps"`
	DomainBurst int     `mapstructure:"domain_burst"`
}

// PoolConfig sizes the shared worker pool.
type PoolConfig struct {
	Workers int `mapstructure:"workers"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COPYVIOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("check.min_confidence", 0.75)
	v.SetDefault("check.url_timeout_seconds", 5)
	v.SetDefault("check.max_time_seconds", 30)
	v.SetDefault("http.user_agent", "earwigbot-copyvios/0.1")
	v.SetDefault("http.domain_rps", 1)
	v.SetDefault("http.domain_burst", 1)
	v.SetDefault("pool.workers", 8)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Check.MinConfidence < 0 || c.Check.MinConfidence > 1 {
		return fmt.Errorf("check.min_confidence must be in [0, 1]")
	}
	if c.Check.URLTimeoutSeconds <= 0 {
		return fmt.Errorf("check.url_timeout_seconds must be > 0")
	}
	if c.Check.MaxTimeSeconds <= 0 {
		return fmt.Errorf("check.max_time_seconds must be > 0")
	}
	if c.Pool.Workers <= 0 {
		return fmt.Errorf("pool.workers must be > 0")
	}
	return nil
}

// URLTimeout returns the per-fetch timeout as a duration.
func (c Config) URLTimeout() time.Duration {
	return time.Duration(c.Check.URLTimeoutSeconds) * time.Second
}

// MaxTime returns the default check deadline length as a duration.
func (c Config) MaxTime() time.Duration {
	return time.Duration(c.Check.MaxTimeSeconds) * time.Second
}
