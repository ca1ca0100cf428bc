package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/regression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	require.NoError(t, ValidateInput(DefaultInput()))

	tests := []struct {
		name   string
		mutate func(*domain.PredictionInput)
	}{
		{"age too low", func(in *domain.PredictionInput) { in.AgentAge = 17 }},
		{"age too high", func(in *domain.PredictionInput) { in.AgentAge = 66 }},
		{"distance", func(in *domain.PredictionInput) { in.Distance = 50.1 }},
		{"prep time", func(in *domain.PredictionInput) { in.PrepTime = -1 }},
		{"hour", func(in *domain.PredictionInput) { in.PickupHour = 24 }},
		{"weekday", func(in *domain.PredictionInput) { in.Weekday = 7 }},
		{"month", func(in *domain.PredictionInput) { in.OrderMonth = 0 }},
		{"rating", func(in *domain.PredictionInput) { in.AgentRating = 0.5 }},
		{"am pm", func(in *domain.PredictionInput) { in.PMAM = "noon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInput()
			tt.mutate(&in)
			assert.True(t, errors.Is(ValidateInput(in), ErrInvalidInput))
		})
	}

	in := DefaultInput()
	in.Weather = "Hail"
	assert.NoError(t, ValidateInput(in), "categorical values are not checked")
}

func TestFormMatchesDefaults(t *testing.T) {
	form := Form()
	assert.Len(t, form.Numeric, 7)
	assert.Len(t, form.Choices, 6)

	def := DefaultInput()
	num := def.Numeric()
	for _, f := range form.Numeric {
		assert.Equal(t, f.Default, num[f.Name], f.Name)
	}
	cat := def.Categorical()
	for _, c := range form.Choices {
		assert.Equal(t, c.Default, cat[c.Name], c.Name)
		assert.Contains(t, c.Options, c.Default)
	}

	form.Choices[0].Options[0] = "changed"
	assert.Equal(t, "AM", Form().Choices[0].Options[0])
}

func TestPredictorScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, regression.Save(path, &regression.Model{
		Kind:         regression.KindLinear,
		FeatureNames: []string{"Distance", "Weather_Sunny", "Traffic_Low", "Vehicle_scooter", "Area_Urban", "Category_Books"},
		Intercept:    60,
		Coefficients: []float64{3, -5, -10, 2, 4, 1},
	}))
	p := NewPredictor(regression.NewModelCache(path))

	in := DefaultInput()
	in.Weather, in.Traffic, in.Vehicle, in.Area, in.Category = "Sunny", "Low", "scooter", "Urban", "Books"
	got, err := p.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 60+15-5-10+2+4+1, got, 1e-9)

	in.AgentAge = 99
	_, err = p.Predict(context.Background(), in)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPredictorModelUnavailable(t *testing.T) {
	p := NewPredictor(regression.NewModelCache(filepath.Join(t.TempDir(), "missing.json")))
	_, err := p.Predict(context.Background(), DefaultInput())
	assert.True(t, errors.Is(err, regression.ErrModelUnavailable))
}
