package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file, then applies
// environment overrides and defaults
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseYAML converts a YAML document into ConfigData without applying defaults
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Durations are written as strings ("24h", "8s") in YAML
	cacheTTL, err := parseDuration("service.cache_ttl", yamlConfig.Service.CacheTTL)
	if err != nil {
		return nil, err
	}
	remoteTimeout, err := parseDuration("service.remote_timeout", yamlConfig.Service.RemoteTimeout)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		Service: ServiceData{
			CacheTTL:            cacheTTL,
			RemoteTimeout:       remoteTimeout,
			CoordinatePrecision: yamlConfig.Service.CoordinatePrecision,
			PrefetchConcurrency: yamlConfig.Service.PrefetchConcurrency,
		},
		Cache: CacheData{
			Backend:      yamlConfig.Cache.Backend,
			MaxEntries:   yamlConfig.Cache.MaxEntries,
			SQLitePath:   yamlConfig.Cache.SQLitePath,
			ValkeyAddr:   yamlConfig.Cache.ValkeyAddr,
			ValkeyPrefix: yamlConfig.Cache.ValkeyPrefix,
		},
		Providers: ProvidersData{
			FarmSense: FarmSenseData{
				Disabled: yamlConfig.Providers.FarmSense.Disabled,
				Endpoint: yamlConfig.Providers.FarmSense.Endpoint,
			},
			APOD: APODData{
				Endpoint: yamlConfig.Providers.APOD.Endpoint,
				APIKey:   yamlConfig.Providers.APOD.APIKey,
			},
			Geocode: GeocodeData{
				Endpoint: yamlConfig.Providers.Geocode.Endpoint,
				Language: yamlConfig.Providers.Geocode.Language,
			},
		},
		REST: RESTServerData{
			ListenAddr:  yamlConfig.REST.ListenAddr,
			HTTPPort:    yamlConfig.REST.HTTPPort,
			TLSCertPath: yamlConfig.REST.TLSCertPath,
			TLSKeyPath:  yamlConfig.REST.TLSKeyPath,
		},
	}

	if yamlConfig.Location != nil {
		config.Location = LocationData{
			Latitude:  yamlConfig.Location.Latitude,
			Longitude: yamlConfig.Location.Longitude,
			Timezone:  yamlConfig.Location.Timezone,
			City:      yamlConfig.Location.City,
		}
	}

	return config, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s %q: %w", field, value, err)
	}
	return d, nil
}

// IsReadOnly returns true for YAML provider (read-only)
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with yaml tags
type ConfigYAML struct {
	Service   ServiceYAML   `yaml:"service,omitempty"`
	Cache     CacheYAML     `yaml:"cache,omitempty"`
	Providers ProvidersYAML `yaml:"providers,omitempty"`
	REST      RESTYAML      `yaml:"rest,omitempty"`
	Location  *LocationYAML `yaml:"location,omitempty"`
}

type ServiceYAML struct {
	CacheTTL            string `yaml:"cache_ttl,omitempty"`
	RemoteTimeout       string `yaml:"remote_timeout,omitempty"`
	CoordinatePrecision *int   `yaml:"coordinate_precision,omitempty"`
	PrefetchConcurrency int    `yaml:"prefetch_concurrency,omitempty"`
}

type CacheYAML struct {
	Backend      string `yaml:"backend,omitempty"`
	MaxEntries   int    `yaml:"max_entries,omitempty"`
	SQLitePath   string `yaml:"sqlite_path,omitempty"`
	ValkeyAddr   string `yaml:"valkey_addr,omitempty"`
	ValkeyPrefix string `yaml:"valkey_prefix,omitempty"`
}

type ProvidersYAML struct {
	FarmSense struct {
		Disabled bool   `yaml:"disabled,omitempty"`
		Endpoint string `yaml:"endpoint,omitempty"`
	} `yaml:"farmsense,omitempty"`
	APOD struct {
		Endpoint string `yaml:"endpoint,omitempty"`
		APIKey   string `yaml:"api_key,omitempty"`
	} `yaml:"apod,omitempty"`
	Geocode struct {
		Endpoint string `yaml:"endpoint,omitempty"`
		Language string `yaml:"language,omitempty"`
	} `yaml:"geocode,omitempty"`
}

type RESTYAML struct {
	ListenAddr  string `yaml:"listen_addr,omitempty"`
	HTTPPort    int    `yaml:"http_port,omitempty"`
	TLSCertPath string `yaml:"tls_cert_path,omitempty"`
	TLSKeyPath  string `yaml:"tls_key_path,omitempty"`
}

type LocationYAML struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone,omitempty"`
	City      string  `yaml:"city,omitempty"`
}
