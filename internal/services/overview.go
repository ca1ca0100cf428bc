package services

import (
	"fmt"
	"time"

	"delivery-analytics-service/internal/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// OverviewKPIs are the headline numbers of the overview view.
type OverviewKPIs struct {
	TotalOrders        int     `json:"total_orders"`
	TotalOrdersLabel   string  `json:"total_orders_label"`
	AvgDeliveryTime    float64 `json:"avg_delivery_time"`
	AvgDeliveryLabel   string  `json:"avg_delivery_label"`
	PeakOrderTime      string  `json:"peak_order_time"`
	HasPeakOrderTime   bool    `json:"has_peak_order_time"`
	TopDeliveryArea    string  `json:"top_delivery_area"`
	HasTopDeliveryArea bool    `json:"has_top_delivery_area"`
}

// Overview computes the KPIs for rows. On empty input the mode KPIs are left
// empty with their Has flags false.
func Overview(rows []domain.Delivery) OverviewKPIs {
	k := OverviewKPIs{
		TotalOrders:      len(rows),
		TotalOrdersLabel: numberPrinter.Sprintf("%d", len(rows)),
	}

	times := make([]float64, len(rows))
	for i, d := range rows {
		times[i] = d.DeliveryTime
	}
	k.AvgDeliveryTime = round2(Mean(times))
	k.AvgDeliveryLabel = fmt.Sprintf("%.1f mins", k.AvgDeliveryTime)

	if peak, ok := PeakOrderTime(rows); ok {
		k.PeakOrderTime, k.HasPeakOrderTime = peak, true
	}
	if counts := ValueCounts(rows, domain.ColArea); len(counts) > 0 {
		k.TopDeliveryArea, k.HasTopDeliveryArea = counts[0].Label, true
	}
	return k
}

// PeakOrderTime returns the most common Order_Time, formatted as HH:MM. The mode
// is taken over the full clock value, seconds included, and ties go to the
// earliest time of day.
func PeakOrderTime(rows []domain.Delivery) (string, bool) {
	counts := map[time.Duration]int{}
	for _, d := range rows {
		if t, ok := domain.ParseClock(d.OrderTime); ok {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}

	var best time.Duration
	bestN := 0
	for t, n := range counts {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return fmt.Sprintf("%02d:%02d", int(best/time.Hour), int(best%time.Hour/time.Minute)), true
}
