package services

import (
	"context"
	"slices"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/regression"

	"github.com/rotisserie/eris"
)

// NumericField describes one bounded numeric input of the prediction form.
type NumericField struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// ChoiceField describes one categorical input and the options offered for it.
type ChoiceField struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Default string   `json:"default"`
}

type PredictionForm struct {
	Numeric []NumericField `json:"numeric"`
	Choices []ChoiceField  `json:"choices"`
}

var numericFields = []NumericField{
	{domain.FieldAgentAge, "Agent Age", 18, 65, 30, 1},
	{domain.FieldDistance, "Distance (km)", 0, 50, 5.0, 0.1},
	{domain.FieldPrepTime, "Prep Time (minutes)", 0, 120, 15, 1},
	{domain.FieldPickupHour, "Pickup Hour", 0, 23, 14, 1},
	{domain.FieldWeekday, "Order Day of Week (0=Mon)", 0, 6, 2, 1},
	{domain.FieldOrderMonth, "Order Month", 1, 12, 3, 1},
	{domain.FieldAgentRating, "Agent Rating", 1.0, 5.0, 4.5, 0.1},
}

var choiceFields = []ChoiceField{
	{domain.FieldPMAM, "Pickup AM/PM", []string{"AM", "PM"}, "AM"},
	{domain.FieldWeather, "Weather", []string{"Sunny", "Fog", "Stormy", "Windy", "Sandstorms"}, "Sunny"},
	{domain.FieldTraffic, "Traffic", []string{"Low", "Medium", "Jam"}, "Low"},
	{domain.FieldVehicle, "Vehicle", []string{"scooter", "van", "motorcycle"}, "scooter"},
	{domain.FieldArea, "Area", []string{"Metropolitian", "Urban", "Semi-Urban", "Other"}, "Metropolitian"},
	{domain.FieldCategory, "Category", []string{"Electronics", "Clothing", "Grocery", "Books", "Sports"}, "Electronics"},
}

// Form describes the prediction inputs with their bounds, options and defaults.
func Form() PredictionForm {
	f := PredictionForm{
		Numeric: slices.Clone(numericFields),
		Choices: make([]ChoiceField, len(choiceFields)),
	}
	for i, c := range choiceFields {
		c.Options = slices.Clone(c.Options)
		f.Choices[i] = c
	}
	return f
}

// DefaultInput is the form's initial state.
func DefaultInput() domain.PredictionInput {
	return domain.PredictionInput{
		AgentAge:    30,
		AgentRating: 4.5,
		Distance:    5.0,
		PrepTime:    15,
		PickupHour:  14,
		Weekday:     2,
		OrderMonth:  3,
		Weather:     "Sunny",
		Traffic:     "Low",
		Vehicle:     "scooter",
		Area:        "Metropolitian",
		Category:    "Electronics",
		PMAM:        "AM",
	}
}

// ValidateInput enforces the numeric form bounds and the AM/PM choice.
// Other categorical values are accepted as-is.
func ValidateInput(in domain.PredictionInput) error {
	values := in.Numeric()
	for _, f := range numericFields {
		v := values[f.Name]
		if v < f.Min || v > f.Max {
			return eris.Wrapf(ErrInvalidInput, "%s must be between %g and %g, got %g", f.Name, f.Min, f.Max, v)
		}
	}
	if in.PMAM != "AM" && in.PMAM != "PM" {
		return eris.Wrapf(ErrInvalidInput, "%s must be AM or PM, got %q", domain.FieldPMAM, in.PMAM)
	}
	return nil
}

type Predictor struct {
	Models *regression.ModelCache
}

func NewPredictor(models *regression.ModelCache) *Predictor {
	return &Predictor{Models: models}
}

// Predict returns the estimated delivery time in minutes for one input.
func (p *Predictor) Predict(ctx context.Context, in domain.PredictionInput) (_ float64, err error) {
	defer obs.Time(ctx, "services.Predictor.Predict")(&err)

	if err := ValidateInput(in); err != nil {
		return 0, err
	}
	m, err := p.Models.Get(ctx)
	if err != nil {
		return 0, err
	}
	return m.Predict(in)
}
