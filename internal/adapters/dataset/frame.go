// Package dataset reads the delivery snapshot from CSV and XLSX files.
package dataset

import (
	"math"
	"slices"
	"strings"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/ports"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rotisserie/eris"
)

// loadOptions types the numeric columns as floats and keeps everything else as text.
func loadOptions() []dataframe.LoadOption {
	types := make(map[string]series.Type, len(domain.NumericColumns))
	for _, c := range domain.NumericColumns {
		types[c] = series.Float
	}
	return []dataframe.LoadOption{
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	}
}

// MissingColumns returns the required columns absent from names.
func MissingColumns(names []string) []string {
	var missing []string
	for _, c := range domain.RequiredColumns {
		if !slices.Contains(names, c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// FromFrame converts a loaded frame into delivery records.
// Rows with an unparseable numeric column or an out-of-range coordinate are
// skipped and counted.
func FromFrame(df dataframe.DataFrame) (ports.LoadResult, error) {
	if df.Err != nil {
		return ports.LoadResult{}, eris.Wrap(df.Err, "dataset: build frame")
	}

	names := df.Names()
	if missing := MissingColumns(names); len(missing) > 0 {
		return ports.LoadResult{}, eris.Errorf("dataset: missing required columns: %s", strings.Join(missing, ", "))
	}

	n := df.Nrow()
	text := func(col string) []string {
		if !slices.Contains(names, col) {
			return make([]string, n)
		}
		recs := df.Col(col).Records()
		for i, r := range recs {
			recs[i] = strings.TrimSpace(r)
		}
		return recs
	}
	num := func(col string) []float64 { return df.Col(col).Float() }

	orderID := text(domain.ColOrderID)
	area, vehicle := text(domain.ColArea), text(domain.ColVehicle)
	weather, traffic := text(domain.ColWeather), text(domain.ColTraffic)
	category := text(domain.ColCategory)
	orderTime, orderDate, pickupTime := text(domain.ColOrderTime), text(domain.ColOrderDate), text(domain.ColPickupTime)

	age, rating := num(domain.ColAgentAge), num(domain.ColAgentRating)
	storeLat, storeLon := num(domain.ColStoreLat), num(domain.ColStoreLon)
	dropLat, dropLon := num(domain.ColDropLat), num(domain.ColDropLon)
	dist, dtime := num(domain.ColDistance), num(domain.ColDeliveryTime)

	rows := make([]domain.Delivery, 0, n)
	skipped := 0
	for i := 0; i < n; i++ {
		if anyNaN(age[i], rating[i], storeLat[i], storeLon[i], dropLat[i], dropLon[i], dist[i], dtime[i]) {
			skipped++
			continue
		}
		store := domain.Coordinates{Lat: storeLat[i], Lon: storeLon[i]}
		drop := domain.Coordinates{Lat: dropLat[i], Lon: dropLon[i]}
		if !store.Valid() || !drop.Valid() {
			skipped++
			continue
		}
		rows = append(rows, domain.Delivery{
			OrderID:      orderID[i],
			AgentAge:     age[i],
			AgentRating:  rating[i],
			StoreLat:     storeLat[i],
			StoreLon:     storeLon[i],
			DropLat:      dropLat[i],
			DropLon:      dropLon[i],
			Area:         area[i],
			Vehicle:      vehicle[i],
			Weather:      weather[i],
			Traffic:      traffic[i],
			Category:     category[i],
			Distance:     dist[i],
			DeliveryTime: dtime[i],
			OrderTime:    orderTime[i],
			OrderDate:    orderDate[i],
			PickupTime:   pickupTime[i],
		})
	}

	return ports.LoadResult{Rows: rows, Skipped: skipped}, nil
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
