package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/lunarphase/internal/cache"
	"github.com/chrissnell/lunarphase/internal/controllers/restserver"
	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/internal/imagery"
	"github.com/chrissnell/lunarphase/internal/log"
	"github.com/chrissnell/lunarphase/internal/phasedata"
	"github.com/chrissnell/lunarphase/internal/providers/farmsense"
	"github.com/chrissnell/lunarphase/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	service, store, err := NewPhaseService(ctx, a.cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warnf("error closing phase cache: %v", err)
		}
	}()

	apod := imagery.NewClient(a.cfg.Providers.APOD.Endpoint, a.cfg.Providers.APOD.APIKey, nil, log.Component("imagery"))
	geocoder := geo.NewBigDataCloudClient(a.cfg.Providers.Geocode.Endpoint, a.cfg.Providers.Geocode.Language, nil, log.Component("geocode"))

	deps := restserver.Dependencies{
		Service:         service,
		Imagery:         apod,
		Geocoder:        geocoder,
		DefaultLocation: defaultLocation(a.cfg.Location),
	}

	rest, err := restserver.NewController(ctx, &wg, a.cfg.REST, deps, log.Component("rest"))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	wg.Add(1)
	go a.pruneCache(ctx, &wg, service)

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// pruneCache periodically drops expired descriptors so long-running SQLite and
// memory caches don't grow without bound
func (a *App) pruneCache(ctx context.Context, wg *sync.WaitGroup, service *phasedata.Service) {
	defer wg.Done()

	ticker := time.NewTicker(service.TTL())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := service.Prune(ctx)
			if err != nil {
				a.logger.Warnf("error pruning phase cache: %v", err)
				continue
			}
			if removed > 0 {
				a.logger.Infof("pruned %d expired phase descriptors", removed)
			}
		}
	}
}

// NewPhaseService builds the phase data service and its cache store from configuration.
// The caller owns the returned store and must close it. With remote false, or
// when FarmSense is disabled, every phase is calculated locally.
func NewPhaseService(ctx context.Context, cfg *config.ConfigData, remote bool) (*phasedata.Service, cache.Store[phasedata.Descriptor], error) {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var provider phasedata.Provider
	if remote && !cfg.Providers.FarmSense.Disabled {
		provider = farmsense.NewClient(cfg.Providers.FarmSense.Endpoint, nil, log.Component("farmsense"))
	}

	service := phasedata.NewService(provider, log.Component("phasedata"),
		phasedata.WithStore(store),
		phasedata.WithTTL(cfg.Service.CacheTTL),
		phasedata.WithTimeout(cfg.Service.RemoteTimeout),
		phasedata.WithPrecision(cfg.Service.Precision()),
		phasedata.WithPrefetchConcurrency(cfg.Service.PrefetchConcurrency),
	)
	return service, store, nil
}

// NewStore opens the configured cache backend
func NewStore(ctx context.Context, cfg *config.ConfigData) (cache.Store[phasedata.Descriptor], error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory, "":
		log.Infof("using in-memory phase cache (max entries: %d)", cfg.Cache.MaxEntries)
		return cache.NewMemoryStore[phasedata.Descriptor](cfg.Cache.MaxEntries), nil
	case config.CacheBackendSQLite:
		log.Infof("using SQLite phase cache at %s", cfg.Cache.SQLitePath)
		store, err := cache.NewSQLiteStore[phasedata.Descriptor](ctx, cfg.Cache.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("error opening SQLite cache: %w", err)
		}
		return store, nil
	case config.CacheBackendValkey:
		log.Infof("using Valkey phase cache at %s", cfg.Cache.ValkeyAddr)
		client, err := cache.NewValkeyClient(cfg.Cache.ValkeyAddr)
		if err != nil {
			return nil, err
		}
		// server-side expiry only reclaims memory; freshness is still judged against CacheTTL
		return cache.NewValkeyStore[phasedata.Descriptor](client, cfg.Cache.ValkeyPrefix, 2*cfg.Service.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %q", cfg.Cache.Backend)
	}
}

func defaultLocation(l config.LocationData) *geo.Location {
	if l.Timezone == "" && l.Latitude == 0 && l.Longitude == 0 {
		return nil
	}
	if l.Latitude == 0 && l.Longitude == 0 {
		loc := geo.DefaultLocation(l.Timezone)
		return &loc
	}
	return &geo.Location{Latitude: l.Latitude, Longitude: l.Longitude, Timezone: l.Timezone, City: l.City}
}
