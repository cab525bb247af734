package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// CachedResponse is one stored design-tool API response.
type CachedResponse struct {
	Key       string `badgerhold:"key"`
	Body      []byte
	FetchedAt time.Time
}

// APICache implements the APICache interface on Badger. Responses are keyed
// by request URL; staleness is decided at read time against the caller's
// freshness window.
type APICache struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAPICache creates an APICache instance
func NewAPICache(db *BadgerDB, logger arbor.ILogger) interfaces.APICache {
	return &APICache{
		db:     db,
		logger: logger,
	}
}

// Get returns the cached body for key if it is younger than maxAge.
func (c *APICache) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, error) {
	var cached CachedResponse
	err := c.db.Store().Get(key, &cached)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	if maxAge > 0 && time.Since(cached.FetchedAt) > maxAge {
		return nil, interfaces.ErrCacheMiss
	}
	return cached.Body, nil
}

// Set stores a response body under key, stamped now.
func (c *APICache) Set(ctx context.Context, key string, body []byte) error {
	cached := CachedResponse{
		Key:       key,
		Body:      body,
		FetchedAt: time.Now(),
	}
	if err := c.db.Store().Upsert(key, &cached); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Purge drops every cached response.
func (c *APICache) Purge(ctx context.Context) error {
	if err := c.db.Store().DeleteMatching(&CachedResponse{}, nil); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}
