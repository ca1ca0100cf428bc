package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"delivery-analytics-service/internal/adapters/repositories"
	"delivery-analytics-service/internal/platform/db"
	"delivery-analytics-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.RenderCache = (*SqliteRenderCache)(nil)
	_ ports.RenderCache = (*RedisRenderCache)(nil)
	_ ports.RenderCache = NoopRenderCache{}
)

func newSqliteCache(t *testing.T) *SqliteRenderCache {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))
	return NewSqliteRenderCache(conn)
}

func TestSqliteRenderCacheHitMissExpiry(t *testing.T) {
	c := newSqliteCache(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "orders-by-area|svg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "orders-by-area|svg", []byte("<svg/>"), time.Minute))

	got, ok, err := c.Get(ctx, "orders-by-area|svg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("<svg/>"), got)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "orders-by-area|svg")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are misses")

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSqliteRenderCacheRejectsEmptyKey(t *testing.T) {
	c := newSqliteCache(t)
	_, _, err := c.Get(context.Background(), " ")
	assert.Error(t, err)
	assert.Error(t, c.Put(context.Background(), "", nil, time.Minute))
}

func TestRedisRenderCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisRenderCache(client)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", []byte("payload"), time.Minute))
	assert.True(t, mr.Exists(redisKeyPrefix+"k"))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRenderCacheServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, _, err = NewRedisRenderCache(client).Get(context.Background(), "k")
	assert.Error(t, err)
}
