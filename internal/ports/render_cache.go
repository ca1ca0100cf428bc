package ports

import (
	"context"
	"time"
)

// Contract for caching rendered chart payloads by an opaque key.
// A miss is reported as (nil, false, nil).
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
