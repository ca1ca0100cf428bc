package regression

import "delivery-analytics-service/internal/domain"

// Encode expands an input into model columns: numeric fields keep their
// name, and each categorical field becomes a "<Field>_<value>" indicator set to 1.
func Encode(in domain.PredictionInput) map[string]float64 {
	out := in.Numeric()
	for field, v := range in.Categorical() {
		out[field+"_"+v] = 1
	}
	return out
}

// Align reindexes encoded columns to features. Missing columns are 0 and
// columns the model does not know are dropped.
func Align(encoded map[string]float64, features []string) []float64 {
	x := make([]float64, len(features))
	for i, f := range features {
		x[i] = encoded[f]
	}
	return x
}

// Predict encodes, aligns and evaluates a single input.
func (m *Model) Predict(in domain.PredictionInput) (float64, error) {
	return m.PredictVector(Align(Encode(in), m.FeatureNames))
}
