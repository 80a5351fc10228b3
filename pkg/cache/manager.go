package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/bigquery-rows/pkg/query"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates no usable page is stored under the key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored page could not be decoded. The
	// entry has been removed by the time this is returned.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrUncacheablePage is returned by SetPage for pages of unfinished jobs
	// and pages without rows.
	ErrUncacheablePage = errors.New("page is not cacheable")
)

// Store persists result pages.
type Store interface {
	GetPage(ctx context.Context, key PageKey) (*query.Response, error)
	SetPage(ctx context.Context, key PageKey, page *query.Response, ttl time.Duration) error
}

// Cacheable reports whether page may be stored. Only pages of completed jobs
// that carry rows are immutable; anything else may change on the next call.
func Cacheable(page *query.Response) bool {
	return page != nil && page.JobComplete && page.HasRows()
}

// Manager is a Store backed by Redis. Each page is kept as a JSON Entry with
// a Redis TTL matching the entry's expiry.
type Manager struct {
	redis *redis.Client
}

var _ Store = (*Manager)(nil)

// NewManager creates a page store on redisClient.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis: redisClient,
	}
}

// GetPage returns the page stored under key, or ErrCacheMiss. Entries that
// do not decode to a cacheable page are deleted and reported as
// ErrInvalidEntry.
func (m *Manager) GetPage(ctx context.Context, key PageKey) (*query.Response, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, m.drop(ctx, key, err)
	}
	if entry.IsExpired() {
		if err := m.Delete(ctx, key); err != nil {
			return nil, errors.Join(ErrCacheMiss, err)
		}
		return nil, ErrCacheMiss
	}

	var page query.Response
	if err := json.Unmarshal(entry.Data, &page); err != nil {
		return nil, m.drop(ctx, key, err)
	}
	if !Cacheable(&page) {
		return nil, m.drop(ctx, key, ErrUncacheablePage)
	}
	return &page, nil
}

// SetPage stores page under key for ttl. Non-positive ttl stores nothing.
func (m *Manager) SetPage(ctx context.Context, key PageKey, page *query.Response, ttl time.Duration) error {
	if !Cacheable(page) {
		return ErrUncacheablePage
	}
	if ttl <= 0 {
		return nil
	}

	pageData, err := json.Marshal(page)
	if err != nil {
		CacheErrors.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode page: %w", err)
	}

	now := time.Now()
	data, err := json.Marshal(&Entry{
		Data:     pageData,
		Expires:  now.Add(ttl),
		CachedAt: now,
	})
	if err != nil {
		CacheErrors.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(data)))
	return nil
}

// Delete removes the page stored under key.
func (m *Manager) Delete(ctx context.Context, key PageKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// drop deletes a corrupt entry and returns ErrInvalidEntry, joined with the
// delete failure if there was one.
func (m *Manager) drop(ctx context.Context, key PageKey, cause error) error {
	CacheErrors.WithLabelValues("decode").Inc()
	invalid := fmt.Errorf("%w: %v", ErrInvalidEntry, cause)
	if err := m.Delete(ctx, key); err != nil {
		return errors.Join(invalid, err)
	}
	return invalid
}
