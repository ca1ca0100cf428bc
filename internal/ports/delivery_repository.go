package ports

import (
	"context"
	"delivery-analytics-service/internal/domain"
)

// LoadResult is a full snapshot read from a dataset source.
type LoadResult struct {
	Rows    []domain.Delivery
	Skipped int
}

// Port: a boundary for reading the delivery snapshot from a data source.
type DeliveryRepository interface {
	// Read every delivery record. Implementations never return a partial result.
	ListDeliveries(ctx context.Context) (LoadResult, error)
	// Describe the source for status reporting (e.g. "file:data/x.csv").
	Source() string
}

// Port: a sink used by the offline import tool.
type DeliveryWriter interface {
	WriteDeliveries(ctx context.Context, rows []domain.Delivery) (int64, error)
}
