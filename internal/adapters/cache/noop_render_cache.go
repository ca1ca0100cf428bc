package cache

import (
	"context"
	"time"
)

// NoopRenderCache never stores anything; used when caching is disabled.
type NoopRenderCache struct{}

func (NoopRenderCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopRenderCache) Put(context.Context, string, []byte, time.Duration) error { return nil }
