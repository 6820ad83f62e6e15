package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/internal/imagery"
	"github.com/chrissnell/lunarphase/internal/log"
	"github.com/chrissnell/lunarphase/internal/phasedata"
	"github.com/chrissnell/lunarphase/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ImageryFetcher returns the astronomy picture for a calendar day
type ImageryFetcher interface {
	Fetch(ctx context.Context, date time.Time) (*imagery.Media, error)
}

// Dependencies are the backends the REST handlers serve from
type Dependencies struct {
	Service  *phasedata.Service
	Imagery  ImageryFetcher      // nil disables /imagery
	Geocoder geo.ReverseGeocoder // nil leaves locations unnamed
	// DefaultLocation is used when a request carries no coordinates; nil means none
	DefaultLocation *geo.Location
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	deps       Dependencies
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, deps Dependencies, logger *zap.SugaredLogger) (*Controller, error) {
	if deps.Service == nil {
		return nil, fmt.Errorf("REST server requires a phase data service")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = config.DefaultListenAddr
	}
	if rc.HTTPPort == 0 {
		logger.Infof("rest.http_port not provided; defaulting to %d", config.DefaultHTTPPort)
		rc.HTTPPort = config.DefaultHTTPPort
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		deps:       deps,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.HTTPPort)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	router.HandleFunc("/phase/{date}", c.handlers.GetPhase).Methods(http.MethodGet)
	router.HandleFunc("/calendar/{year:[0-9]+}/{month:[0-9]+}", c.handlers.GetCalendar).Methods(http.MethodGet)
	router.HandleFunc("/ephemeris/{date}", c.handlers.GetEphemeris).Methods(http.MethodGet)
	router.HandleFunc("/location", c.handlers.GetLocation).Methods(http.MethodGet)
	router.HandleFunc("/cache", c.handlers.ClearCache).Methods(http.MethodDelete)
	router.HandleFunc("/cache/stats", c.handlers.GetCacheStats).Methods(http.MethodGet)

	// We only enable the /imagery endpoint if an imagery client has been configured.
	if c.deps.Imagery != nil {
		router.HandleFunc("/imagery/{date}", c.handlers.GetImagery).Methods(http.MethodGet)
	}

	return router
}
