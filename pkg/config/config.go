// Package config loads the client configuration from a YAML file, with
// environment-variable expansion for secrets like the passhash.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	Username       string  `mapstructure:"username"`
	Passhash       string  `mapstructure:"passhash"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
	Size       int `mapstructure:"size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path. $VAR and ${VAR} references in the
// file are expanded from the environment before parsing, so credentials
// can stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout_seconds", 30)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_limit_burst", 20)

	v.SetDefault("cache.ttl_minutes", 5)
	v.SetDefault("cache.size", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
