package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeliveries() []domain.Delivery {
	return []domain.Delivery{
		{
			OrderID: "b-2", AgentAge: 34, AgentRating: 4.5,
			StoreLat: 12.91, StoreLon: 77.68, DropLat: 13.04, DropLon: 77.81,
			Area: "Metropolitian", Vehicle: "scooter", Weather: "Stormy", Traffic: "Jam", Category: "Electronics",
			Distance: 20.18, DeliveryTime: 165, OrderTime: "19:45:00", OrderDate: "2022-03-25", PickupTime: "19:50:00",
		},
		{
			OrderID: "a-1", AgentAge: 37, AgentRating: 4.9,
			StoreLat: 22.74, StoreLon: 75.89, DropLat: 22.76, DropLon: 75.91,
			Area: "Urban", Vehicle: "motorcycle", Weather: "Sunny", Traffic: "High", Category: "Clothing",
			Distance: 3.03, DeliveryTime: 120, OrderTime: "11:30:00",
		},
	}
}

func openTestSQLite(t *testing.T) *SqliteDeliveryRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	conn, err := db.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitSchema(conn))
	return NewSqliteDeliveryRepository(conn, path)
}

func TestSqliteDeliveryRepositoryRoundTrip(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	n, err := repo.WriteDeliveries(ctx, sampleDeliveries())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	res, err := repo.ListDeliveries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skipped)
	// Import order is kept, not key order.
	assert.Equal(t, sampleDeliveries(), res.Rows)
}

func TestSqliteDeliveryRepositoryReplacesOnConflict(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	_, err := repo.WriteDeliveries(ctx, sampleDeliveries())
	require.NoError(t, err)

	updated := sampleDeliveries()[:1]
	updated[0].DeliveryTime = 99
	_, err = repo.WriteDeliveries(ctx, updated)
	require.NoError(t, err)

	res, err := repo.ListDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	var got float64
	for _, d := range res.Rows {
		if d.OrderID == "b-2" {
			got = d.DeliveryTime
		}
	}
	assert.InDelta(t, 99, got, 1e-9)
}

func TestSqliteDeliveryRepositoryRejectsEmptyOrderID(t *testing.T) {
	repo := openTestSQLite(t)
	_, err := repo.WriteDeliveries(context.Background(), []domain.Delivery{{Area: "Urban"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_id cannot be empty")
}

func TestSqliteDeliveryRepositoryNilDB(t *testing.T) {
	repo := &SqliteDeliveryRepository{}
	_, err := repo.ListDeliveries(context.Background())
	assert.Error(t, err)
	_, err = repo.WriteDeliveries(context.Background(), sampleDeliveries())
	assert.Error(t, err)
	assert.Error(t, InitSchema(nil))
}

func TestSqliteDeliveryRepositoryMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	conn, err := db.OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewSqliteDeliveryRepository(conn, path).ListDeliveries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query deliveries table")
}
