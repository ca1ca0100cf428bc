package dto

import "delivery-analytics-service/internal/domain"

// PredictRequest carries the prediction form values.
// Omitted fields take the form defaults.
type PredictRequest struct {
	AgentAge    *float64 `json:"Agent_Age,omitempty"`
	AgentRating *float64 `json:"Agent_Rating,omitempty"`
	Distance    *float64 `json:"Distance,omitempty"`
	PrepTime    *float64 `json:"Prep_Time,omitempty"`
	PickupHour  *float64 `json:"Pickup_Hour,omitempty"`
	Weekday     *float64 `json:"Order_of_week_day,omitempty"`
	OrderMonth  *float64 `json:"Order_Month,omitempty"`
	Weather     *string  `json:"Weather,omitempty"`
	Traffic     *string  `json:"Traffic,omitempty"`
	Vehicle     *string  `json:"Vehicle,omitempty"`
	Area        *string  `json:"Area,omitempty"`
	Category    *string  `json:"Category,omitempty"`
	PMAM        *string  `json:"PM_AM,omitempty"`
}

// Input overlays the request on defaults.
func (r PredictRequest) Input(defaults domain.PredictionInput) domain.PredictionInput {
	in := defaults
	num := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	str := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	num(&in.AgentAge, r.AgentAge)
	num(&in.AgentRating, r.AgentRating)
	num(&in.Distance, r.Distance)
	num(&in.PrepTime, r.PrepTime)
	num(&in.PickupHour, r.PickupHour)
	num(&in.Weekday, r.Weekday)
	num(&in.OrderMonth, r.OrderMonth)
	str(&in.Weather, r.Weather)
	str(&in.Traffic, r.Traffic)
	str(&in.Vehicle, r.Vehicle)
	str(&in.Area, r.Area)
	str(&in.Category, r.Category)
	str(&in.PMAM, r.PMAM)
	return in
}

type PredictResponse struct {
	PredictedMinutes float64                `json:"predicted_minutes"`
	Label            string                 `json:"label"`
	Input            domain.PredictionInput `json:"input"`
}
