package domain

// Prediction form field names; they double as the model's raw feature names
// before categorical expansion.
const (
	FieldAgentAge    = "Agent_Age"
	FieldAgentRating = "Agent_Rating"
	FieldDistance    = "Distance"
	FieldPrepTime    = "Prep_Time"
	FieldPickupHour  = "Pickup_Hour"
	FieldWeekday     = "Order_of_week_day"
	FieldOrderMonth  = "Order_Month"
	FieldWeather     = "Weather"
	FieldTraffic     = "Traffic"
	FieldVehicle     = "Vehicle"
	FieldArea        = "Area"
	FieldCategory    = "Category"
	FieldPMAM        = "PM_AM"
)

// Represents one transient prediction request built from the form inputs.
type PredictionInput struct {
	AgentAge    float64 `json:"Agent_Age"`
	AgentRating float64 `json:"Agent_Rating"`
	Distance    float64 `json:"Distance"`
	PrepTime    float64 `json:"Prep_Time"`
	PickupHour  float64 `json:"Pickup_Hour"`
	Weekday     float64 `json:"Order_of_week_day"`
	OrderMonth  float64 `json:"Order_Month"`
	Weather     string  `json:"Weather"`
	Traffic     string  `json:"Traffic"`
	Vehicle     string  `json:"Vehicle"`
	Area        string  `json:"Area"`
	Category    string  `json:"Category"`
	PMAM        string  `json:"PM_AM"`
}

// Numeric returns the numeric fields keyed by feature name.
func (p PredictionInput) Numeric() map[string]float64 {
	return map[string]float64{
		FieldAgentAge:    p.AgentAge,
		FieldAgentRating: p.AgentRating,
		FieldDistance:    p.Distance,
		FieldPrepTime:    p.PrepTime,
		FieldPickupHour:  p.PickupHour,
		FieldWeekday:     p.Weekday,
		FieldOrderMonth:  p.OrderMonth,
	}
}

// Categorical returns the categorical fields keyed by feature name.
func (p PredictionInput) Categorical() map[string]string {
	return map[string]string{
		FieldWeather:  p.Weather,
		FieldTraffic:  p.Traffic,
		FieldVehicle:  p.Vehicle,
		FieldArea:     p.Area,
		FieldCategory: p.Category,
		FieldPMAM:     p.PMAM,
	}
}
