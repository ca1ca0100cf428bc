package services

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"delivery-analytics-service/internal/domain"

	"github.com/rotisserie/eris"
)

// Filter returns the rows matching every active predicate of sel, in input order.
func Filter(rows []domain.Delivery, sel domain.Selection) []domain.Delivery {
	if sel.IsEmpty() {
		return rows
	}
	out := make([]domain.Delivery, 0, len(rows))
	for _, d := range rows {
		if sel.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// ParseSelection reads area, vehicle, min_time and max_time query parameters.
// area and vehicle may repeat or be comma separated. A parameter that is
// present but empty selects nothing, while an absent one selects everything.
func ParseSelection(q url.Values) (domain.Selection, error) {
	var sel domain.Selection
	sel.Areas = parseSet(q, "area")
	sel.Vehicles = parseSet(q, "vehicle")

	var err error
	if sel.MinTime, err = parseBound(q, "min_time"); err != nil {
		return sel, err
	}
	if sel.MaxTime, err = parseBound(q, "max_time"); err != nil {
		return sel, err
	}
	if sel.MinTime != nil && sel.MaxTime != nil && *sel.MinTime > *sel.MaxTime {
		return sel, eris.Wrapf(ErrBadSelection, "min_time %g is greater than max_time %g", *sel.MinTime, *sel.MaxTime)
	}
	return sel, nil
}

func parseSet(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" && !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseBound(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, eris.Wrapf(ErrBadSelection, "%s must be a number, got %q", key, raw)
	}
	return &v, nil
}

// SelectionKey renders sel in a canonical form usable as a cache key.
func SelectionKey(sel domain.Selection) string {
	set := func(vals []string) string {
		if vals == nil {
			return "*"
		}
		s := slices.Clone(vals)
		slices.Sort(s)
		return "[" + strings.Join(s, ",") + "]"
	}
	bound := func(v *float64) string {
		if v == nil {
			return "*"
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return "area=" + set(sel.Areas) + "&vehicle=" + set(sel.Vehicles) +
		"&time=" + bound(sel.MinTime) + ".." + bound(sel.MaxTime)
}

// FilterOptions are the values offered by the filter widgets.
type FilterOptions struct {
	Areas    []string `json:"areas"`
	Vehicles []string `json:"vehicles"`
	MinTime  int      `json:"min_time"`
	MaxTime  int      `json:"max_time"`
}

// Options lists the distinct areas and vehicles in first-seen order and the
// delivery-time bounds truncated to whole minutes.
func Options(rows []domain.Delivery) FilterOptions {
	opts := FilterOptions{Areas: []string{}, Vehicles: []string{}}
	if len(rows) == 0 {
		return opts
	}

	lo, hi := rows[0].DeliveryTime, rows[0].DeliveryTime
	for _, d := range rows {
		if !slices.Contains(opts.Areas, d.Area) {
			opts.Areas = append(opts.Areas, d.Area)
		}
		if !slices.Contains(opts.Vehicles, d.Vehicle) {
			opts.Vehicles = append(opts.Vehicles, d.Vehicle)
		}
		lo = math.Min(lo, d.DeliveryTime)
		hi = math.Max(hi, d.DeliveryTime)
	}
	opts.MinTime, opts.MaxTime = int(lo), int(hi)
	return opts
}
