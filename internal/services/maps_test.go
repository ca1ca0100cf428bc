package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"delivery-analytics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manyRows(n int) []domain.Delivery {
	rows := make([]domain.Delivery, n)
	for i := range rows {
		rows[i] = domain.Delivery{
			OrderID:  fmt.Sprintf("o%d", i),
			StoreLat: 12.9, StoreLon: 77.6,
			DropLat: 13.0, DropLon: 77.7,
			DeliveryTime: float64(i % 200),
		}
	}
	return rows
}

func TestSampleSizeIsCapped(t *testing.T) {
	for _, n := range []int{0, 1, 999, 1000, 1001, 5000} {
		got := Sample(manyRows(n), 1000, 7)
		assert.Len(t, got, min(1000, n), "n=%d", n)
	}
}

func TestSampleIsReproducibleAndDistinct(t *testing.T) {
	rows := manyRows(3000)
	a, b := Sample(rows, 500, 42), Sample(rows, 500, 42)
	assert.Equal(t, a, b)

	seen := map[string]bool{}
	for _, d := range a {
		assert.False(t, seen[d.OrderID], "sampled twice: %s", d.OrderID)
		seen[d.OrderID] = true
	}
	assert.NotEqual(t, a, Sample(rows, 500, 43))
}

func TestBuildMapModes(t *testing.T) {
	rows := fixtureRows()
	seed := uint64(1)

	stores, err := BuildMap(rows, MapOptions{Mode: MapStores, Seed: &seed})
	require.NoError(t, err)
	assert.Len(t, stores.GeoJSON.Features, len(rows))
	assert.Equal(t, len(rows), stores.LocationsShown)
	assert.Equal(t, 10, stores.Zoom)
	assert.Equal(t, seed, stores.Seed)
	for _, f := range stores.GeoJSON.Features {
		assert.Equal(t, "store", f.Properties["kind"])
	}

	routes, err := BuildMap(rows, MapOptions{Mode: MapRoutes, Seed: &seed})
	require.NoError(t, err)
	assert.Len(t, routes.GeoJSON.Features, 3*len(rows))
	assert.Equal(t, "Store - ord-0", findPopup(routes, "store"))
	assert.Contains(t, findPopup(routes, "drop"), "min")

	heat, err := BuildMap(rows, MapOptions{Mode: MapHeatmap, Seed: &seed, CellSize: 1})
	require.NoError(t, err)
	require.NotEmpty(t, heat.GeoJSON.Features)
	peak := 0.0
	total := 0
	for _, f := range heat.GeoJSON.Features {
		peak = max(peak, f.Properties["intensity"].(float64))
		total += f.Properties["count"].(int)
	}
	assert.Equal(t, 1.0, peak)
	assert.Equal(t, 2*len(rows), total)

	require.NotNil(t, routes.Center)
	assert.InDelta(t, 12.95, routes.Center.Lat, 0.03)
	assert.InDelta(t, 77.65, routes.Center.Lon, 0.03)
}

func findPopup(l MapLayer, kind string) string {
	for _, f := range l.GeoJSON.Features {
		if f.Properties["kind"] == kind {
			return f.Properties["popup"].(string)
		}
	}
	return ""
}

func TestBuildMapEmptyAndInvalid(t *testing.T) {
	layer, err := BuildMap(nil, MapOptions{})
	require.NoError(t, err)
	assert.Nil(t, layer.Center)
	assert.Equal(t, 0, layer.LocationsShown)
	assert.Equal(t, MapRoutes, layer.Mode)

	b, err := json.Marshal(layer)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"FeatureCollection"`)

	_, err = BuildMap(nil, MapOptions{Mode: "satellite"})
	assert.True(t, errors.Is(err, ErrBadSelection))
}

func TestBuildMapRespectsCap(t *testing.T) {
	layer, err := BuildMap(manyRows(2500), MapOptions{Mode: MapStores, SampleCap: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1000, layer.LocationsShown)
	assert.Len(t, layer.GeoJSON.Features, 1000)
}

func TestBinPoints(t *testing.T) {
	cells := BinPoints([]domain.Delivery{
		{StoreLat: 0.001, StoreLon: 0.001, DropLat: 0.002, DropLon: 0.003},
		{StoreLat: 0.015, StoreLon: 0.001, DropLat: -0.005, DropLon: 0.001},
	}, 0.01)
	require.Len(t, cells, 3)
	assert.Equal(t, 1, cells[0].Count)
	assert.Equal(t, 2, cells[1].Count)
	assert.Equal(t, 1, cells[2].Count)
}
