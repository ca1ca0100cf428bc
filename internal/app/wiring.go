// Package app builds the concrete adapters selected by configuration.
package app

import (
	"context"
	"time"

	"delivery-analytics-service/internal/adapters/cache"
	"delivery-analytics-service/internal/adapters/dataset"
	"delivery-analytics-service/internal/adapters/repositories"
	"delivery-analytics-service/internal/config"
	"delivery-analytics-service/internal/platform/db"
	"delivery-analytics-service/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Store is a repository that can also be written by the import tool.
type Store interface {
	ports.DeliveryRepository
	ports.DeliveryWriter
	InitSchema(ctx context.Context) error
}

type sqliteStore struct {
	*repositories.SqliteDeliveryRepository
}

func (s sqliteStore) InitSchema(context.Context) error {
	return repositories.InitSchema(s.DB)
}

// OpenRepository returns the dataset source named by cfg.Source.
// The returned func releases any database handle.
func OpenRepository(ctx context.Context, cfg config.DataConfig) (ports.DeliveryRepository, func(), error) {
	if cfg.Source == "file" {
		return dataset.NewFileRepository(cfg.Path), func() {}, nil
	}
	return OpenStore(ctx, cfg.Source, cfg)
}

// OpenStore opens a database-backed store, either "sqlite" or "postgres".
func OpenStore(ctx context.Context, kind string, cfg config.DataConfig) (Store, func(), error) {
	switch kind {
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewSqliteDeliveryRepository(conn, cfg.SQLitePath)
		return sqliteStore{repo}, func() { conn.Close() }, nil
	case "postgres":
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewPostgresDeliveryRepository(pool), pool.Close, nil
	}
	return nil, nil, eris.Errorf("unsupported store %q", kind)
}

// OpenRenderCache returns the chart render cache named by cfg.Driver.
func OpenRenderCache(ctx context.Context, cfg config.CacheConfig) (ports.RenderCache, func(), error) {
	switch cfg.Driver {
	case "", "none":
		return cache.NoopRenderCache{}, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, eris.Wrapf(err, "render cache: ping redis %s", cfg.RedisAddr)
		}
		return cache.NewRedisRenderCache(client), func() { client.Close() }, nil
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		c := cache.NewSqliteRenderCache(conn)
		if n, err := c.Purge(ctx); err != nil {
			zap.L().Warn("render cache purge failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("purged expired renders", zap.Int64("rows", n))
		}
		return c, func() { conn.Close() }, nil
	}
	return nil, nil, eris.Errorf("unsupported cache driver %q", cfg.Driver)
}
