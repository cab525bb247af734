package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a cached response is absent or stale.
var ErrCacheMiss = errors.New("cache miss")

// APICache stores raw design-tool API responses keyed by request URL so
// repeated read-tool calls do not burn through the upstream rate limit.
type APICache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, error)
	Set(ctx context.Context, key string, body []byte) error
	Purge(ctx context.Context) error
}
