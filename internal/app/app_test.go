package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/lunarphase/internal/cache"
	"github.com/chrissnell/lunarphase/internal/phasedata"
	"github.com/chrissnell/lunarphase/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *config.ConfigData {
	t.Helper()
	cfg := &config.ConfigData{Cache: config.CacheData{Backend: backend}}
	cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "cache.db")
	cfg.ApplyDefaults()
	return cfg
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStore(ctx, testConfig(t, config.CacheBackendMemory))
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore[phasedata.Descriptor]{}, store)
	require.NoError(t, store.Close())

	store, err = NewStore(ctx, testConfig(t, config.CacheBackendSQLite))
	require.NoError(t, err)
	assert.IsType(t, &cache.SQLiteStore[phasedata.Descriptor]{}, store)
	require.NoError(t, store.Close())

	_, err = NewStore(ctx, testConfig(t, "memcached"))
	assert.Error(t, err)
}

func TestNewPhaseServiceLocalOnly(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.CacheBackendSQLite)

	service, store, err := NewPhaseService(ctx, cfg, false)
	require.NoError(t, err)
	defer store.Close()

	date := time.Date(2000, 1, 20, 0, 0, 0, 0, time.UTC)
	got := service.GetPhase(ctx, date, nil)
	assert.Equal(t, phasedata.LocalDescriptor(date), got)

	entry, ok, err := store.Get(ctx, phasedata.CacheKey(date, nil, cfg.Service.Precision()))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, entry.Value)
	assert.Equal(t, cfg.Service.CacheTTL, service.TTL())
}

func TestDefaultLocation(t *testing.T) {
	assert.Nil(t, defaultLocation(config.LocationData{}))

	loc := defaultLocation(config.LocationData{Timezone: "America/Bogota"})
	require.NotNil(t, loc)
	assert.Equal(t, "Bogotá", loc.City)

	loc = defaultLocation(config.LocationData{Latitude: 51.5, Longitude: -0.12, City: "London"})
	require.NotNil(t, loc)
	assert.Equal(t, "London", loc.City)
}
