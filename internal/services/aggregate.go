package services

import (
	"cmp"
	"math"
	"slices"

	"delivery-analytics-service/internal/domain"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GroupStat summarises the rows sharing one value of a categorical column.
type GroupStat struct {
	Key   string             `json:"key"`
	Count int                `json:"count"`
	Means map[string]float64 `json:"means"`
}

// LabelCount is one entry of a value-count table.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Bin is one equal-width histogram bucket covering [Lo, Hi).
// The last bin also includes Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

func measure(d domain.Delivery, col string) (float64, bool) {
	switch col {
	case domain.ColAgentAge:
		return d.AgentAge, true
	case domain.ColAgentRating:
		return d.AgentRating, true
	case domain.ColDistance:
		return d.Distance, true
	case domain.ColDeliveryTime:
		return d.DeliveryTime, true
	case domain.ColStoreLat:
		return d.StoreLat, true
	case domain.ColStoreLon:
		return d.StoreLon, true
	case domain.ColDropLat:
		return d.DropLat, true
	case domain.ColDropLon:
		return d.DropLon, true
	}
	return 0, false
}

// Column extracts a numeric column from rows.
func Column(rows []domain.Delivery, col string) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, d := range rows {
		v, ok := measure(d, col)
		if !ok {
			return nil, eris.Errorf("unknown numeric column %q", col)
		}
		out[i] = v
	}
	return out, nil
}

// GroupStats groups rows by a categorical column and reports the count and
// the mean of each measure per group, sorted by key. Rows with a blank key
// belong to no group.
func GroupStats(rows []domain.Delivery, column string, measures ...string) ([]GroupStat, error) {
	if !domain.IsCategorical(column) {
		return nil, eris.Errorf("group stats: %q is not a categorical column", column)
	}
	rows = slices.DeleteFunc(slices.Clone(rows), func(d domain.Delivery) bool { return d.Categorical(column) == "" })
	if len(rows) == 0 {
		return []GroupStat{}, nil
	}

	keys := make([]string, len(rows))
	for i, d := range rows {
		keys[i] = d.Categorical(column)
	}
	cols := []series.Series{series.New(keys, series.String, column)}
	for _, m := range measures {
		vals, err := Column(rows, m)
		if err != nil {
			return nil, eris.Wrap(err, "group stats")
		}
		cols = append(cols, series.New(vals, series.Float, m))
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, eris.Wrap(df.Err, "group stats: build frame")
	}
	groups := df.GroupBy(column)
	if groups.Err != nil {
		return nil, eris.Wrap(groups.Err, "group stats: group by")
	}

	out := make([]GroupStat, 0)
	for _, g := range groups.GetGroups() {
		gs := GroupStat{
			Key:   g.Col(column).Elem(0).String(),
			Count: g.Nrow(),
			Means: make(map[string]float64, len(measures)),
		}
		for _, m := range measures {
			gs.Means[m] = stat.Mean(g.Col(m).Float(), nil)
		}
		out = append(out, gs)
	}
	slices.SortFunc(out, func(a, b GroupStat) int { return cmp.Compare(a.Key, b.Key) })
	return out, nil
}

// ValueCounts counts the values of a categorical column, most frequent first.
// Ties are ordered by label. Blank values are not counted.
func ValueCounts(rows []domain.Delivery, column string) []LabelCount {
	counts := map[string]int{}
	for _, d := range rows {
		if k := d.Categorical(column); k != "" {
			counts[k]++
		}
	}
	out := make([]LabelCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	slices.SortFunc(out, func(a, b LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// Histogram bins values into equal-width buckets over [min, max].
// A constant series collapses into a single bin.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins < 1 {
		return []Bin{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(sorted)}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram treats the last divider as exclusive.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	out[bins-1].Hi = hi
	return out
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
