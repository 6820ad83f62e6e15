package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
	CacheBackendValkey = "valkey"
)

// Defaults applied by ApplyDefaults
const (
	DefaultCacheTTL            = 24 * time.Hour
	DefaultRemoteTimeout       = 8 * time.Second
	DefaultCoordinatePrecision = 2
	DefaultPrefetchConcurrency = 8
	DefaultSQLitePath          = "lunarphase-cache.db"
	DefaultValkeyPrefix        = "lunarphase"
	DefaultFarmSenseEndpoint   = "https://api.farmsense.net/v1/moonphases/"
	DefaultAPODEndpoint        = "https://api.nasa.gov/planetary/apod"
	DefaultAPODKey             = "DEMO_KEY"
	DefaultGeocodeEndpoint     = "https://api.bigdatacloud.net/data/reverse-geocode-client"
	DefaultGeocodeLanguage     = "en"
	DefaultListenAddr          = "0.0.0.0"
	DefaultHTTPPort            = 8080
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Service   ServiceData    `json:"service"`
	Cache     CacheData      `json:"cache"`
	Providers ProvidersData  `json:"providers"`
	REST      RESTServerData `json:"rest"`
	Location  LocationData   `json:"location,omitempty"`
}

// ServiceData tunes the phase data service
type ServiceData struct {
	CacheTTL            time.Duration `json:"cache_ttl"`
	RemoteTimeout       time.Duration `json:"remote_timeout"`
	CoordinatePrecision *int          `json:"coordinate_precision"`
	PrefetchConcurrency int           `json:"prefetch_concurrency"`
}

// Precision returns the configured cache key precision. Zero is a valid setting,
// so an unset value is nil rather than 0.
func (s ServiceData) Precision() int {
	if s.CoordinatePrecision == nil {
		return DefaultCoordinatePrecision
	}
	return *s.CoordinatePrecision
}

// CacheData selects and configures the phase cache backend
type CacheData struct {
	Backend      string `json:"backend"`
	MaxEntries   int    `json:"max_entries,omitempty"`
	SQLitePath   string `json:"sqlite_path,omitempty"`
	ValkeyAddr   string `json:"valkey_addr,omitempty"`
	ValkeyPrefix string `json:"valkey_prefix,omitempty"`
}

// ProvidersData holds the third-party API settings
type ProvidersData struct {
	FarmSense FarmSenseData `json:"farmsense"`
	APOD      APODData      `json:"apod"`
	Geocode   GeocodeData   `json:"geocode"`
}

type FarmSenseData struct {
	Disabled bool   `json:"disabled,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

type APODData struct {
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

type GeocodeData struct {
	Endpoint string `json:"endpoint,omitempty"`
	Language string `json:"language,omitempty"`
}

type RESTServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty"`
	HTTPPort    int    `json:"http_port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty"`
}

// LocationData is the default observer used when a request carries no coordinates
type LocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
	City      string  `json:"city,omitempty"`
}

// ApplyDefaults fills unset fields with their defaults
func (c *ConfigData) ApplyDefaults() {
	if c.Service.CacheTTL == 0 {
		c.Service.CacheTTL = DefaultCacheTTL
	}
	if c.Service.RemoteTimeout == 0 {
		c.Service.RemoteTimeout = DefaultRemoteTimeout
	}
	if c.Service.CoordinatePrecision == nil {
		precision := DefaultCoordinatePrecision
		c.Service.CoordinatePrecision = &precision
	}
	if c.Service.PrefetchConcurrency == 0 {
		c.Service.PrefetchConcurrency = DefaultPrefetchConcurrency
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendMemory
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = DefaultSQLitePath
	}
	if c.Cache.ValkeyPrefix == "" {
		c.Cache.ValkeyPrefix = DefaultValkeyPrefix
	}

	if c.Providers.FarmSense.Endpoint == "" {
		c.Providers.FarmSense.Endpoint = DefaultFarmSenseEndpoint
	}
	if c.Providers.APOD.Endpoint == "" {
		c.Providers.APOD.Endpoint = DefaultAPODEndpoint
	}
	if c.Providers.APOD.APIKey == "" {
		c.Providers.APOD.APIKey = DefaultAPODKey
	}
	if c.Providers.Geocode.Endpoint == "" {
		c.Providers.Geocode.Endpoint = DefaultGeocodeEndpoint
	}
	if c.Providers.Geocode.Language == "" {
		c.Providers.Geocode.Language = DefaultGeocodeLanguage
	}

	if c.REST.ListenAddr == "" {
		c.REST.ListenAddr = DefaultListenAddr
	}
	if c.REST.HTTPPort == 0 {
		c.REST.HTTPPort = DefaultHTTPPort
	}
}

// Validate reports the first configuration problem found
func (c *ConfigData) Validate() error {
	if c.Service.CacheTTL < 0 {
		return fmt.Errorf("service.cache_ttl must be positive, got %v", c.Service.CacheTTL)
	}
	if c.Service.RemoteTimeout < 0 {
		return fmt.Errorf("service.remote_timeout must be positive, got %v", c.Service.RemoteTimeout)
	}
	if p := c.Service.Precision(); p < 0 || p > 6 {
		return fmt.Errorf("service.coordinate_precision must be between 0 and 6, got %d", p)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendSQLite:
	case CacheBackendValkey:
		if c.Cache.ValkeyAddr == "" {
			return fmt.Errorf("cache.valkey_addr is required for the valkey backend")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %q", c.Cache.Backend)
	}

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude out of range: %v", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude out of range: %v", c.Location.Longitude)
	}
	return nil
}
