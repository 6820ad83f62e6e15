package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
service:
  cache_ttl: 1h
  remote_timeout: 5s
  coordinate_precision: 3
cache:
  backend: sqlite
  sqlite_path: /var/lib/lunarphase/cache.db
  max_entries: 5000
providers:
  apod:
    api_key: from-file
  geocode:
    language: es
rest:
  http_port: 9090
location:
  latitude: 40.4168
  longitude: -3.7038
  timezone: Europe/Madrid
  city: Madrid
`

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Service.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Service.RemoteTimeout)
	assert.Equal(t, 3, cfg.Service.Precision())
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, 5000, cfg.Cache.MaxEntries)
	assert.Equal(t, "/var/lib/lunarphase/cache.db", cfg.Cache.SQLitePath)
	assert.Equal(t, "from-file", cfg.Providers.APOD.APIKey)
	assert.Equal(t, "es", cfg.Providers.Geocode.Language)
	assert.Equal(t, 9090, cfg.REST.HTTPPort)
	assert.Equal(t, "Madrid", cfg.Location.City)
	assert.InDelta(t, -3.7038, cfg.Location.Longitude, 1e-9)
}

func TestParseYAMLZeroPrecision(t *testing.T) {
	cfg, err := ParseYAML([]byte("service:\n  coordinate_precision: 0\n"))
	require.NoError(t, err)

	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0, cfg.Service.Precision())

	cfg, err = ParseYAML([]byte("service:\n  cache_ttl: 1h\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Service.CoordinatePrecision)

	cfg.ApplyDefaults()
	assert.Equal(t, DefaultCoordinatePrecision, cfg.Service.Precision())
}

func TestParseYAMLBadDuration(t *testing.T) {
	_, err := ParseYAML([]byte("service:\n  cache_ttl: forever\n"))
	assert.ErrorContains(t, err, "service.cache_ttl")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &ConfigData{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultCacheTTL, cfg.Service.CacheTTL)
	assert.Equal(t, DefaultRemoteTimeout, cfg.Service.RemoteTimeout)
	assert.Equal(t, DefaultCoordinatePrecision, cfg.Service.Precision())
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, DefaultAPODKey, cfg.Providers.APOD.APIKey)
	assert.Equal(t, DefaultFarmSenseEndpoint, cfg.Providers.FarmSense.Endpoint)
	assert.Equal(t, DefaultHTTPPort, cfg.REST.HTTPPort)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigData)
	}{
		{"unknown backend", func(c *ConfigData) { c.Cache.Backend = "memcached" }},
		{"valkey without address", func(c *ConfigData) { c.Cache.Backend = CacheBackendValkey }},
		{"precision too high", func(c *ConfigData) { p := 9; c.Service.CoordinatePrecision = &p }},
		{"negative max entries", func(c *ConfigData) { c.Cache.MaxEntries = -1 }},
		{"latitude out of range", func(c *ConfigData) { c.Location.Latitude = 91 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ConfigData{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestYAMLProviderAppliesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunarphase.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("NASA_API_KEY", "from-env")
	t.Setenv("LUNARPHASE_HTTP_PORT", "7070")

	provider := NewYAMLProvider(path)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	require.NoError(t, err)

	assert.True(t, provider.IsReadOnly())
	assert.Equal(t, "from-env", cfg.Providers.APOD.APIKey)
	assert.Equal(t, 7070, cfg.REST.HTTPPort)
	// unset fields still get defaults
	assert.Equal(t, DefaultPrefetchConcurrency, cfg.Service.PrefetchConcurrency)
}

func TestYAMLProviderMissingFile(t *testing.T) {
	_, err := NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml")).LoadConfig()
	assert.Error(t, err)
}
