package services

import (
	"context"
	"sync"
	"time"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/ports"

	"go.uber.org/zap"
)

// DatasetCache loads the delivery snapshot once per process and shares it read-only.
// A failed load is kept as an empty dataset carrying the error message; it is not retried.
type DatasetCache struct {
	repo ports.DeliveryRepository
	now  func() time.Time

	once sync.Once
	ds   *domain.Dataset
}

func NewDatasetCache(repo ports.DeliveryRepository) *DatasetCache {
	return &DatasetCache{repo: repo, now: time.Now}
}

// Get returns the snapshot, loading it on first use.
func (c *DatasetCache) Get(ctx context.Context) *domain.Dataset {
	c.once.Do(func() {
		c.ds = c.load(context.WithoutCancel(ctx))
	})
	return c.ds
}

func (c *DatasetCache) load(ctx context.Context) *domain.Dataset {
	var err error
	defer obs.Time(ctx, "services.DatasetCache.Load")(&err)

	ds := &domain.Dataset{Source: c.repo.Source(), LoadedAt: c.now()}

	res, err := c.repo.ListDeliveries(ctx)
	if err != nil {
		zap.L().Error("dataset load failed", zap.String("source", ds.Source), zap.Error(err))
		ds.Err = "Error loading data: " + err.Error()
		ds.Rows = []domain.Delivery{}
		return ds
	}

	if res.Skipped > 0 {
		zap.L().Warn("skipped malformed rows", zap.String("source", ds.Source), zap.Int("skipped", res.Skipped))
	}
	zap.L().Info("dataset loaded", zap.String("source", ds.Source), zap.Int("rows", len(res.Rows)))

	ds.Rows = res.Rows
	ds.Skipped = res.Skipped
	return ds
}
