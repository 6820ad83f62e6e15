// Package phasedata resolves moon phase data for calendar days by layering a
// remote provider and a TTL cache over the local calculator in pkg/lunar.
// Callers always get a descriptor: remote failures fall back to the calculator.
package phasedata

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chrissnell/lunarphase/internal/cache"
	"github.com/chrissnell/lunarphase/internal/geo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL                 = 24 * time.Hour
	DefaultTimeout             = 8 * time.Second
	DefaultPrecision           = 2
	DefaultPrefetchConcurrency = 8
)

var errRemoteDisabled = errors.New("no remote provider configured")

// Clock abstracts time.Now() so cache expiry can be tested deterministically
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Stats counts how requests were served since the service was created
type Stats struct {
	CacheHits      int64 `json:"cache_hits"`
	RemoteResolved int64 `json:"remote_resolved"`
	LocalFallbacks int64 `json:"local_fallbacks"`
	AbandonedWaits int64 `json:"abandoned_waits"`
	StoreErrors    int64 `json:"store_errors"`
}

// Service resolves phase descriptors. It is safe for concurrent use.
type Service struct {
	provider    Provider
	store       cache.Store[Descriptor]
	logger      *zap.SugaredLogger
	clock       Clock
	ttl         time.Duration
	timeout     time.Duration
	precision   int
	concurrency int
	group       singleflight.Group

	hits, remote, fallbacks, abandoned, storeErrors atomic.Int64
}

// Option configures a Service
type Option func(*Service)

// WithStore replaces the default unbounded in-memory store
func WithStore(store cache.Store[Descriptor]) Option {
	return func(s *Service) { s.store = store }
}

// WithClock sets the clock used for cache timestamps
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithTTL sets how long cached descriptors are served
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTimeout bounds each remote provider call
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithPrecision sets the number of decimals coordinates are rounded to in cache keys
func WithPrecision(decimals int) Option {
	return func(s *Service) {
		if decimals >= 0 {
			s.precision = decimals
		}
	}
}

// WithPrefetchConcurrency limits how many dates Prefetch resolves at once
func WithPrefetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a phase data service. A nil provider disables remote lookups.
func NewService(provider Provider, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		logger:      logger,
		clock:       realClock{},
		ttl:         DefaultTTL,
		timeout:     DefaultTimeout,
		precision:   DefaultPrecision,
		concurrency: DefaultPrefetchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = cache.NewMemoryStore[Descriptor](0)
	}
	return s
}

// GetPhase returns the phase for the calendar day of date as seen from loc (nil for none).
// It never fails. If ctx ends while a remote lookup is in flight, the local
// calculation is returned and the lookup is left to finish and fill the cache.
func (s *Service) GetPhase(ctx context.Context, date time.Time, loc *geo.Location) Descriptor {
	key := CacheKey(date, loc, s.precision)

	if desc, ok := s.lookup(ctx, key); ok {
		s.hits.Add(1)
		return withLocation(desc, loc)
	}

	// detach so one caller giving up does not cancel the shared lookup
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if desc, ok := s.lookup(flightCtx, key); ok {
			s.hits.Add(1)
			return desc, nil
		}
		return s.resolve(flightCtx, key, date, loc), nil
	})

	select {
	case res := <-ch:
		return withLocation(res.Val.(Descriptor), loc)
	case <-ctx.Done():
		s.abandoned.Add(1)
		s.logger.Debugf("caller gave up on %s, returning local calculation", key)
		return withLocation(LocalDescriptor(date), loc)
	}
}

// Prefetch resolves many dates concurrently, e.g. a visible calendar month.
// Results are returned in the order of dates.
func (s *Service) Prefetch(ctx context.Context, dates []time.Time, loc *geo.Location) []Descriptor {
	out := make([]Descriptor, len(dates))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			out[i] = s.GetPhase(ctx, date, loc)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Clear drops every cached descriptor
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("error clearing phase cache: %w", err)
	}
	return nil
}

// Prune drops expired descriptors from stores that support it and reports how many went
func (s *Service) Prune(ctx context.Context) (int64, error) {
	pruner, ok := s.store.(cache.Pruner)
	if !ok {
		return 0, nil
	}
	removed, err := pruner.Prune(ctx, s.clock.Now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("error pruning phase cache: %w", err)
	}
	return removed, nil
}

// Stats returns a snapshot of the service counters
func (s *Service) Stats() Stats {
	return Stats{
		CacheHits:      s.hits.Load(),
		RemoteResolved: s.remote.Load(),
		LocalFallbacks: s.fallbacks.Load(),
		AbandonedWaits: s.abandoned.Load(),
		StoreErrors:    s.storeErrors.Load(),
	}
}

// TTL returns the configured cache lifetime
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) lookup(ctx context.Context, key string) (Descriptor, bool) {
	entry, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.storeErrors.Add(1)
		s.logger.Warnf("phase cache lookup for %s failed: %v", key, err)
		return Descriptor{}, false
	}
	if !ok || !entry.Fresh(s.clock.Now(), s.ttl) {
		return Descriptor{}, false
	}
	return entry.Value, true
}

// resolve asks the provider once and falls back to the calculator. Either result is cached.
func (s *Service) resolve(ctx context.Context, key string, date time.Time, loc *geo.Location) Descriptor {
	desc, err := s.fetchRemote(ctx, date, loc)
	if err != nil {
		if !errors.Is(err, errRemoteDisabled) {
			s.logger.Warnf("remote phase lookup for %s failed, using local calculation: %v", key, err)
		}
		s.fallbacks.Add(1)
		desc = LocalDescriptor(date)
	} else {
		s.remote.Add(1)
	}

	if err := s.store.Set(ctx, key, cache.Entry[Descriptor]{Value: desc, CreatedAt: s.clock.Now()}); err != nil {
		s.storeErrors.Add(1)
		s.logger.Warnf("phase cache update for %s failed: %v", key, err)
	}
	return desc
}

type fetchResult struct {
	reading Reading
	err     error
}

// fetchRemote bounds the provider call by the service timeout even if the
// provider ignores its context
func (s *Service) fetchRemote(ctx context.Context, date time.Time, loc *geo.Location) (Descriptor, error) {
	if s.provider == nil {
		return Descriptor{}, errRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		reading, err := s.provider.FetchPhase(ctx, date, loc)
		done <- fetchResult{reading: reading, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return Descriptor{}, res.err
		}
		return remoteDescriptor(date, res.reading)
	case <-ctx.Done():
		return Descriptor{}, fmt.Errorf("remote provider: %w", ctx.Err())
	}
}

func withLocation(desc Descriptor, loc *geo.Location) Descriptor {
	if loc != nil {
		l := *loc
		desc.Location = &l
	}
	return desc
}
