package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the settings that may come from the environment.
// Secrets belong here rather than in the YAML file.
type envOverrides struct {
	APODAPIKey   string `env:"NASA_API_KEY"`
	CacheBackend string `env:"LUNARPHASE_CACHE_BACKEND"`
	ValkeyAddr   string `env:"LUNARPHASE_VALKEY_ADDR"`
	SQLitePath   string `env:"LUNARPHASE_SQLITE_PATH"`
	HTTPPort     int    `env:"LUNARPHASE_HTTP_PORT"`
}

// ApplyEnv overlays non-empty environment variables onto the configuration
func ApplyEnv(c *ConfigData) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if overrides.APODAPIKey != "" {
		c.Providers.APOD.APIKey = overrides.APODAPIKey
	}
	if overrides.CacheBackend != "" {
		c.Cache.Backend = overrides.CacheBackend
	}
	if overrides.ValkeyAddr != "" {
		c.Cache.ValkeyAddr = overrides.ValkeyAddr
	}
	if overrides.SQLitePath != "" {
		c.Cache.SQLitePath = overrides.SQLitePath
	}
	if overrides.HTTPPort != 0 {
		c.REST.HTTPPort = overrides.HTTPPort
	}
	return nil
}
