package services

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"delivery-analytics-service/internal/domain"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

type MapMode string

const (
	MapRoutes  MapMode = "routes"
	MapHeatmap MapMode = "heatmap"
	MapStores  MapMode = "stores"
)

// ParseMapMode maps a query value to a mode; empty means routes.
func ParseMapMode(s string) (MapMode, error) {
	switch MapMode(s) {
	case "", MapRoutes:
		return MapRoutes, nil
	case MapHeatmap, MapStores:
		return MapMode(s), nil
	}
	return "", eris.Wrapf(ErrBadSelection, "unknown map mode %q", s)
}

type MapOptions struct {
	Mode      MapMode
	SampleCap int
	CellSize  float64
	Zoom      int
	// Seed fixes the sample; nil draws a fresh one.
	Seed *uint64
}

// MapLayer is a sampled geographic view of the selection.
type MapLayer struct {
	Mode            MapMode                    `json:"mode"`
	Center          *domain.Coordinates        `json:"center"`
	Zoom            int                        `json:"zoom"`
	LocationsShown  int                        `json:"locations_shown"`
	AvgDeliveryTime float64                    `json:"avg_delivery_time"`
	Seed            uint64                     `json:"seed"`
	GeoJSON         *geojson.FeatureCollection `json:"geojson"`
}

// Sample draws min(limit, len(rows)) rows without replacement.
func Sample(rows []domain.Delivery, limit int, seed uint64) []domain.Delivery {
	if limit >= len(rows) {
		return rows
	}
	if limit <= 0 {
		return []domain.Delivery{}
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]domain.Delivery, limit)
	for i, idx := range r.Perm(len(rows))[:limit] {
		out[i] = rows[idx]
	}
	return out
}

// Center averages every store and drop coordinate of rows.
func Center(rows []domain.Delivery) (domain.Coordinates, bool) {
	if len(rows) == 0 {
		return domain.Coordinates{}, false
	}
	var lat, lon float64
	for _, d := range rows {
		lat += d.StoreLat + d.DropLat
		lon += d.StoreLon + d.DropLon
	}
	n := float64(2 * len(rows))
	return domain.Coordinates{Lat: lat / n, Lon: lon / n}, true
}

// BuildMap samples rows and renders them as GeoJSON in the requested mode.
func BuildMap(rows []domain.Delivery, opts MapOptions) (MapLayer, error) {
	mode, err := ParseMapMode(string(opts.Mode))
	if err != nil {
		return MapLayer{}, err
	}
	if opts.SampleCap <= 0 {
		opts.SampleCap = 1000
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 0.01
	}
	if opts.Zoom == 0 {
		opts.Zoom = 10
	}

	seed := rand.Uint64()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	sample := Sample(rows, opts.SampleCap, seed)
	layer := MapLayer{
		Mode:           mode,
		Zoom:           opts.Zoom,
		LocationsShown: len(sample),
		Seed:           seed,
		GeoJSON:        &geojson.FeatureCollection{Features: []*geojson.Feature{}},
	}
	if c, ok := Center(sample); ok {
		layer.Center = &c
	}

	times := make([]float64, len(sample))
	for i, d := range sample {
		times[i] = d.DeliveryTime
	}
	layer.AvgDeliveryTime = round2(Mean(times))

	switch mode {
	case MapStores:
		for _, d := range sample {
			layer.GeoJSON.Features = append(layer.GeoJSON.Features, storeMarker(d))
		}
	case MapRoutes:
		for _, d := range sample {
			layer.GeoJSON.Features = append(layer.GeoJSON.Features,
				storeMarker(d),
				dropMarker(d),
				routeLine(d))
		}
	case MapHeatmap:
		layer.GeoJSON.Features = heatCells(sample, opts.CellSize)
	}
	return layer, nil
}

func point(c domain.Coordinates) *geom.Point {
	return geom.NewPointFlat(geom.XY, c.CoordsToList())
}

func storeMarker(d domain.Delivery) *geojson.Feature {
	return &geojson.Feature{
		Geometry: point(d.Store()),
		Properties: map[string]any{
			"kind":     "store",
			"order_id": d.OrderID,
			"popup":    "Store - " + d.OrderID,
		},
	}
}

func dropMarker(d domain.Delivery) *geojson.Feature {
	return &geojson.Feature{
		Geometry: point(d.Drop()),
		Properties: map[string]any{
			"kind":          "drop",
			"order_id":      d.OrderID,
			"delivery_time": d.DeliveryTime,
			"popup":         "Delivery - " + strconv.FormatFloat(d.DeliveryTime, 'f', -1, 64) + "min",
		},
	}
}

func routeLine(d domain.Delivery) *geojson.Feature {
	flat := append(d.Store().CoordsToList(), d.Drop().CoordsToList()...)
	return &geojson.Feature{
		Geometry: geom.NewLineStringFlat(geom.XY, flat),
		Properties: map[string]any{
			"kind":     "route",
			"order_id": d.OrderID,
		},
	}
}

type cellKey struct{ row, col int64 }

// HeatCell is one occupied grid cell of the heatmap.
type HeatCell struct {
	South, West float64
	Count       int
}

// BinPoints counts store and drop points per grid cell of size degrees,
// ordered south to north then west to east.
func BinPoints(rows []domain.Delivery, size float64) []HeatCell {
	counts := map[cellKey]int{}
	add := func(c domain.Coordinates) {
		counts[cellKey{int64(math.Floor(c.Lat / size)), int64(math.Floor(c.Lon / size))}]++
	}
	for _, d := range rows {
		add(d.Store())
		add(d.Drop())
	}

	keys := make([]cellKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b cellKey) int {
		if c := cmp.Compare(a.row, b.row); c != 0 {
			return c
		}
		return cmp.Compare(a.col, b.col)
	})

	cells := make([]HeatCell, len(keys))
	for i, k := range keys {
		cells[i] = HeatCell{South: float64(k.row) * size, West: float64(k.col) * size, Count: counts[k]}
	}
	return cells
}

func heatCells(rows []domain.Delivery, size float64) []*geojson.Feature {
	cells := BinPoints(rows, size)
	maxCount := 0
	for _, c := range cells {
		maxCount = max(maxCount, c.Count)
	}

	features := make([]*geojson.Feature, len(cells))
	for i, c := range cells {
		n, e := c.South+size, c.West+size
		ring := []float64{c.West, c.South, e, c.South, e, n, c.West, n, c.West, c.South}
		features[i] = &geojson.Feature{
			Geometry: geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}),
			Properties: map[string]any{
				"kind":      "heat",
				"count":     c.Count,
				"intensity": float64(c.Count) / float64(maxCount),
			},
		}
	}
	return features
}
