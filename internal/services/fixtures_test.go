package services

import (
	"fmt"

	"delivery-analytics-service/internal/domain"
)

func fixtureRows() []domain.Delivery {
	areas := []string{"Urban", "Metropolitian", "Urban", "Semi-Urban", "Metropolitian", "Urban"}
	vehicles := []string{"scooter", "van", "motorcycle", "scooter", "scooter", "van"}
	weather := []string{"Sunny", "Fog", "Sunny", "Stormy", "Fog", "Sunny"}
	traffic := []string{"Low", "Jam", "Medium", "Jam", "Low", "Low"}
	times := []float64{90, 150, 110, 200, 75, 120}

	rows := make([]domain.Delivery, len(areas))
	for i := range rows {
		rows[i] = domain.Delivery{
			OrderID:      fmt.Sprintf("ord-%d", i),
			AgentAge:     float64(25 + i),
			AgentRating:  4 + float64(i)/10,
			StoreLat:     12.90 + float64(i)/100,
			StoreLon:     77.60 + float64(i)/100,
			DropLat:      12.95 + float64(i)/100,
			DropLon:      77.65 + float64(i)/100,
			Area:         areas[i],
			Vehicle:      vehicles[i],
			Weather:      weather[i],
			Traffic:      traffic[i],
			Category:     "Books",
			Distance:     float64(2 + i),
			DeliveryTime: times[i],
			OrderTime:    fmt.Sprintf("1%d:30:00", i%3),
		}
	}
	return rows
}

func ptr(v float64) *float64 { return &v }
