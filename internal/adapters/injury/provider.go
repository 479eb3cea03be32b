package injury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
	"github.com/okian/matchup/pkg/metrics"
)

// Defaults for the Provider.
const (
	DefaultTTL     = 6 * time.Hour
	DefaultTimeout = 3 * time.Second
)

// ProviderOption applies a configuration option to the Provider.
type ProviderOption func(*Provider)

// WithCache replaces the default MemoryCache.
func WithCache(c Cache) ProviderOption {
	return func(p *Provider) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithTimeout bounds each live fetch and each cache call.
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l logger.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// Provider serves the injury state: fresh cache first, then a bounded live
// fetch, then stale cache. Concurrent refreshes share one fetch.
type Provider struct {
	source  Source
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     logger.Logger
	group   singleflight.Group
}

// NewProvider creates a Provider over source.
func NewProvider(source Source, opts ...ProviderOption) *Provider {
	p := &Provider{
		source:  source,
		cache:   NewMemoryCache(),
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the injury state and where it came from. The error wraps
// model.ErrUpstreamUnavailable when neither the source nor the cache can
// answer.
func (p *Provider) Current(ctx context.Context) (model.InjuryState, model.InjurySource, error) {
	entry, cached, err := p.readCache(ctx)
	if err != nil {
		p.log.Warn(ctx, "injury cache read failed", logger.Error(err))
		metrics.RecordErrorByComponent("injury", "cache_read")
		cached = false
	}
	if cached && p.now().Sub(entry.FetchedAt) < p.ttl {
		metrics.RecordInjuryCache("hit")
		return entry.State, model.InjuryCache, nil
	}
	metrics.RecordInjuryCache("miss")

	state, err := p.refresh(ctx)
	if err == nil {
		return state, model.InjuryLive, nil
	}

	if cached {
		metrics.RecordInjuryCache("stale")
		p.log.Warn(ctx, "injury source unavailable, serving stale cache",
			logger.Error(err),
			logger.String("fetched_at", entry.FetchedAt.Format(time.RFC3339)),
		)
		return entry.State, model.InjuryStale, nil
	}
	if !errors.Is(err, model.ErrUpstreamUnavailable) {
		err = fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	return nil, "", err
}

// Refresh forces a live fetch and caches the result.
func (p *Provider) Refresh(ctx context.Context) error {
	_, err := p.refresh(ctx)
	return err
}

func (p *Provider) refresh(ctx context.Context) (model.InjuryState, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, ErrNoSources)
	}
	v, err, _ := p.group.Do("fetch", func() (interface{}, error) {
		// Shared by every waiting caller, so only the timeout bounds it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		start := time.Now()
		state, err := p.source.Fetch(fctx)
		ms := float64(time.Since(start).Microseconds()) / 1000
		if err != nil {
			outcome := "error"
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(fctx.Err(), context.DeadlineExceeded) {
				outcome = "timeout"
			}
			metrics.RecordInjuryFetch(outcome, ms)
			return nil, err
		}
		metrics.RecordInjuryFetch("ok", ms)

		if err := p.writeCache(ctx, Entry{State: state, FetchedAt: p.now()}); err != nil {
			p.log.Warn(ctx, "injury cache write failed", logger.Error(err))
			metrics.RecordErrorByComponent("injury", "cache_write")
		}
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.InjuryState), nil
}

func (p *Provider) readCache(ctx context.Context) (Entry, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.cache.Get(cctx)
}

// writeCache gets its own budget so a slow fetch does not starve it.
func (p *Provider) writeCache(ctx context.Context, e Entry) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	return p.cache.Set(cctx, e)
}
