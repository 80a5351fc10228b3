package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/bigquery-rows/pkg/query"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPageTTL is well inside the lifetime of BigQuery's anonymous
// result tables (24h).
const DefaultPageTTL = 1 * time.Hour

// PageCacheConfig configures a PageCache.
type PageCacheConfig struct {
	// ProjectID namespaces keys when several projects share one Redis.
	ProjectID string

	// TTL of cached pages. Zero means DefaultPageTTL.
	TTL time.Duration
}

// PageCache is a query.API that serves repeated page requests from a Store.
type PageCache struct {
	api    query.API
	store  Store
	config PageCacheConfig
	logger zerolog.Logger
}

var _ query.API = (*PageCache)(nil)

// NewPageCache wraps api with a page cache backed by store.
func NewPageCache(api query.API, store Store, cfg PageCacheConfig) *PageCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPageTTL
	}
	return &PageCache{
		api:    api,
		store:  store,
		config: cfg,
		logger: log.With().Str("component", "bq-page-cache").Logger(),
	}
}

// SetLogger replaces the cache logger.
func (p *PageCache) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// RunQuery is never cached.
func (p *PageCache) RunQuery(ctx context.Context, body query.Body) (*query.Response, error) {
	return p.api.RunQuery(ctx, body)
}

// GetQueryResults returns the cached page when present, otherwise fetches it
// and caches complete, non-empty pages.
func (p *PageCache) GetQueryResults(ctx context.Context, jobID string, params query.PageParams) (*query.Response, error) {
	key := PageKey{
		ProjectID:  p.config.ProjectID,
		JobID:      jobID,
		StartIndex: params.StartIndex,
		MaxResults: params.MaxResults,
	}

	if res, ok := p.lookup(ctx, key); ok {
		return res, nil
	}

	res, err := p.api.GetQueryResults(ctx, jobID, params)
	if err != nil {
		return nil, err
	}

	if Cacheable(res) {
		p.save(ctx, key, res)
	}
	return res, nil
}

func (p *PageCache) save(ctx context.Context, key PageKey, res *query.Response) {
	if err := p.store.SetPage(ctx, key, res, p.config.TTL); err != nil {
		p.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache page")
		return
	}

	p.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", p.config.TTL).
		Int("rows", len(res.Rows)).
		Msg("Cached page")
}

func (p *PageCache) lookup(ctx context.Context, key PageKey) (*query.Response, bool) {
	res, err := p.store.GetPage(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrCacheMiss):
		CacheMisses.Inc()
		if err != ErrCacheMiss {
			p.logger.Debug().Err(err).Str("key", key.String()).Msg("Failed to delete expired page")
		}
		return nil, false
	case errors.Is(err, ErrInvalidEntry):
		CacheMisses.Inc()
		p.logger.Debug().Err(err).Str("key", key.String()).Msg("Dropped undecodable cache entry")
		return nil, false
	default:
		p.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		return nil, false
	}

	CacheHits.WithLabelValues("redis").Inc()
	p.logger.Debug().
		Str("key", key.String()).
		Int("rows", len(res.Rows)).
		Msg("Serving page from cache")
	return res, true
}
