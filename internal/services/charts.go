package services

import (
	"fmt"

	"delivery-analytics-service/internal/domain"

	"github.com/rotisserie/eris"
)

type ChartType string

const (
	ChartBar       ChartType = "bar"
	ChartHBar      ChartType = "horizontal_bar"
	ChartPie       ChartType = "pie"
	ChartDonut     ChartType = "donut"
	ChartHistogram ChartType = "histogram"
	ChartScatter   ChartType = "scatter"
)

// DefaultPalette is the colour cycle applied to every chart.
var DefaultPalette = []string{"#FF9900", "#146EB4", "#232F3E", "#00A8E1", "#7FBA00", "#F25022", "#B4A7D6", "#FFB900"}

// ChartPoint is one labelled value. X and Size are only set for scatter charts.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	X     float64 `json:"x,omitempty"`
	Size  float64 `json:"size,omitempty"`
}

type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// ChartSpec is a render-ready chart description.
type ChartSpec struct {
	ID         string        `json:"id"`
	ChartType  ChartType     `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
}

// Points returns the data of the first series.
func (c ChartSpec) Points() []ChartPoint {
	if len(c.Series) == 0 {
		return nil
	}
	return c.Series[0].Data
}

// ChartInfo describes one entry of the chart catalog.
type ChartInfo struct {
	ID    string    `json:"id"`
	Type  ChartType `json:"type"`
	Title string    `json:"title"`
}

type chartBuilder func(rows []domain.Delivery) (ChartSpec, error)

type catalogEntry struct {
	info  ChartInfo
	build chartBuilder
}

var catalog = []catalogEntry{
	{ChartInfo{"orders-by-area", ChartHBar, "Orders by Area"}, ordersByArea},
	{ChartInfo{"top-areas", ChartDonut, "Top 5 Delivery Areas"}, topAreas},
	{ChartInfo{"delivery-time-distribution", ChartHistogram, "Delivery Time Distribution"}, histogramChart(domain.ColDeliveryTime, 30, "Delivery Time (mins)")},
	{ChartInfo{"agent-rating-distribution", ChartHistogram, "Agent Rating Distribution"}, histogramChart(domain.ColAgentRating, 20, "Agent Rating")},
	{ChartInfo{"vehicle-distribution", ChartPie, "Vehicle Type Distribution"}, vehicleDistribution},
	{ChartInfo{"weather-impact", ChartScatter, "Weather Impact on Delivery Time"}, weatherImpact},
	{ChartInfo{"traffic-impact", ChartBar, "Traffic Impact on Delivery Time"}, trafficImpact},
}

// Catalog lists the available charts in display order.
func Catalog() []ChartInfo {
	out := make([]ChartInfo, len(catalog))
	for i, e := range catalog {
		out[i] = e.info
	}
	return out
}

// BuildChart builds chart id over rows.
// Unknown ids yield ErrBadSelection and empty input yields ErrNoData.
func BuildChart(id string, rows []domain.Delivery) (ChartSpec, error) {
	for _, e := range catalog {
		if e.info.ID != id {
			continue
		}
		if len(rows) == 0 {
			return ChartSpec{}, eris.Wrapf(ErrNoData, "chart %s", id)
		}
		spec, err := e.build(rows)
		if err != nil {
			return ChartSpec{}, eris.Wrapf(err, "chart %s", id)
		}
		spec.ID, spec.ChartType, spec.Title = e.info.ID, e.info.Type, e.info.Title
		spec.Colors = DefaultPalette
		return spec, nil
	}
	return ChartSpec{}, eris.Wrapf(ErrBadSelection, "unknown chart %q", id)
}

func countPoints(counts []LabelCount) []ChartPoint {
	pts := make([]ChartPoint, len(counts))
	for i, c := range counts {
		pts[i] = ChartPoint{Label: c.Label, Value: float64(c.Count)}
	}
	return pts
}

func ordersByArea(rows []domain.Delivery) (ChartSpec, error) {
	return ChartSpec{
		XAxis:  "Number of Orders",
		YAxis:  "Area",
		Series: []ChartSeries{{Name: "Orders", Data: countPoints(ValueCounts(rows, domain.ColArea))}},
	}, nil
}

func topAreas(rows []domain.Delivery) (ChartSpec, error) {
	counts := ValueCounts(rows, domain.ColArea)
	if len(counts) > 5 {
		counts = counts[:5]
	}
	return ChartSpec{
		ShowLegend: true,
		Series:     []ChartSeries{{Name: "Orders", Data: countPoints(counts)}},
	}, nil
}

func vehicleDistribution(rows []domain.Delivery) (ChartSpec, error) {
	return ChartSpec{
		ShowLegend: true,
		Series:     []ChartSeries{{Name: "Orders", Data: countPoints(ValueCounts(rows, domain.ColVehicle))}},
	}, nil
}

func histogramChart(col string, bins int, axis string) chartBuilder {
	return func(rows []domain.Delivery) (ChartSpec, error) {
		values, err := Column(rows, col)
		if err != nil {
			return ChartSpec{}, err
		}
		hist := Histogram(values, bins)
		pts := make([]ChartPoint, len(hist))
		for i, b := range hist {
			pts[i] = ChartPoint{Label: fmt.Sprintf("%.1f-%.1f", b.Lo, b.Hi), Value: float64(b.Count), X: b.Lo}
		}
		return ChartSpec{
			XAxis:  axis,
			YAxis:  "Count",
			Series: []ChartSeries{{Name: col, Data: pts}},
		}, nil
	}
}

func weatherImpact(rows []domain.Delivery) (ChartSpec, error) {
	insight, err := Weather(rows)
	if err != nil {
		return ChartSpec{}, err
	}
	pts := make([]ChartPoint, len(insight.Rows))
	for i, r := range insight.Rows {
		pts[i] = ChartPoint{Label: r.Weather, X: float64(r.Orders), Value: r.AvgDeliveryTime, Size: float64(r.Orders)}
	}
	return ChartSpec{
		XAxis:      "Number of Orders",
		YAxis:      "Average Delivery Time (mins)",
		ShowLegend: true,
		Series:     []ChartSeries{{Name: "Weather", Data: pts}},
	}, nil
}

func trafficImpact(rows []domain.Delivery) (ChartSpec, error) {
	tr, err := Traffic(rows)
	if err != nil {
		return ChartSpec{}, err
	}
	pts := make([]ChartPoint, len(tr))
	for i, r := range tr {
		pts[i] = ChartPoint{Label: r.Traffic, Value: r.AvgDeliveryTime}
	}
	return ChartSpec{
		XAxis:  "Traffic",
		YAxis:  "Average Delivery Time (mins)",
		Series: []ChartSeries{{Name: "Traffic", Data: pts}},
	}, nil
}

type WeatherRow struct {
	Weather         string  `json:"weather"`
	AvgDeliveryTime float64 `json:"avg_delivery_time"`
	Orders          int     `json:"orders"`
}

// WeatherInsight pairs the per-weather table with its extremes.
type WeatherInsight struct {
	Rows    []WeatherRow `json:"rows"`
	Slowest string       `json:"slowest"`
	Fastest string       `json:"fastest"`
}

// Weather aggregates delivery time by weather condition.
func Weather(rows []domain.Delivery) (WeatherInsight, error) {
	groups, err := GroupStats(rows, domain.ColWeather, domain.ColDeliveryTime)
	if err != nil {
		return WeatherInsight{}, err
	}
	if len(groups) == 0 {
		return WeatherInsight{}, ErrNoData
	}

	out := WeatherInsight{Rows: make([]WeatherRow, len(groups))}
	slow, fast := 0, 0
	for i, g := range groups {
		mean := g.Means[domain.ColDeliveryTime]
		out.Rows[i] = WeatherRow{Weather: g.Key, AvgDeliveryTime: round2(mean), Orders: g.Count}
		if mean > groups[slow].Means[domain.ColDeliveryTime] {
			slow = i
		}
		if mean < groups[fast].Means[domain.ColDeliveryTime] {
			fast = i
		}
	}
	out.Slowest, out.Fastest = groups[slow].Key, groups[fast].Key
	return out, nil
}

type TrafficRow struct {
	Traffic         string  `json:"traffic"`
	AvgDeliveryTime float64 `json:"avg_delivery_time"`
	AvgDistance     float64 `json:"avg_distance"`
	Orders          int     `json:"orders"`
}

// Traffic aggregates delivery time and distance by traffic level.
func Traffic(rows []domain.Delivery) ([]TrafficRow, error) {
	groups, err := GroupStats(rows, domain.ColTraffic, domain.ColDeliveryTime, domain.ColDistance)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNoData
	}
	out := make([]TrafficRow, len(groups))
	for i, g := range groups {
		out[i] = TrafficRow{
			Traffic:         g.Key,
			AvgDeliveryTime: round2(g.Means[domain.ColDeliveryTime]),
			AvgDistance:     round2(g.Means[domain.ColDistance]),
			Orders:          g.Count,
		}
	}
	return out, nil
}
