package regression

import (
	"errors"
	"slices"
	"strings"
	"time"

	"delivery-analytics-service/internal/domain"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

const defaultRidge = 1e-3

type TrainOptions struct {
	// Ridge is the L2 penalty applied to every coefficient except the intercept.
	Ridge float64
}

// FeaturesFromDelivery derives the prediction form fields from a recorded delivery.
// Fields that cannot be derived fall back to neutral values.
func FeaturesFromDelivery(d domain.Delivery) domain.PredictionInput {
	in := domain.PredictionInput{
		AgentAge:    d.AgentAge,
		AgentRating: d.AgentRating,
		Distance:    d.Distance,
		Weather:     d.Weather,
		Traffic:     d.Traffic,
		Vehicle:     d.Vehicle,
		Area:        d.Area,
		Category:    d.Category,
		PMAM:        "AM",
		OrderMonth:  1,
	}

	ordered, okOrder := domain.ParseClock(d.OrderTime)
	picked, okPick := domain.ParseClock(d.PickupTime)
	if okOrder && okPick {
		prep := picked - ordered
		if prep < 0 {
			prep += 24 * time.Hour
		}
		in.PrepTime = prep.Minutes()
	}

	clock, ok := picked, okPick
	if !ok {
		clock, ok = ordered, okOrder
	}
	if ok {
		hour := int(clock / time.Hour)
		in.PickupHour = float64(hour)
		if hour >= 12 {
			in.PMAM = "PM"
		}
	}

	if date, err := time.Parse("2006-01-02", strings.TrimSpace(d.OrderDate)); err == nil {
		in.Weekday = float64((int(date.Weekday()) + 6) % 7)
		in.OrderMonth = float64(date.Month())
	}
	return in
}

// Train fits a ridge-regularised linear model of delivery time on rows.
func Train(rows []domain.Delivery, opts TrainOptions) (*Model, error) {
	if len(rows) == 0 {
		return nil, eris.New("train: no rows")
	}
	ridge := opts.Ridge
	if ridge <= 0 {
		ridge = defaultRidge
	}

	encoded := make([]map[string]float64, len(rows))
	columns := map[string]struct{}{}
	for i, d := range rows {
		encoded[i] = Encode(FeaturesFromDelivery(d))
		for k := range encoded[i] {
			columns[k] = struct{}{}
		}
	}
	features := make([]string, 0, len(columns))
	for k := range columns {
		features = append(features, k)
	}
	slices.Sort(features)

	// Column 0 of the design matrix is the intercept.
	p := len(features) + 1
	x := mat.NewDense(len(rows), p, nil)
	y := mat.NewVecDense(len(rows), nil)
	for i, e := range encoded {
		x.Set(i, 0, 1)
		for j, v := range Align(e, features) {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, rows[i].DeliveryTime)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+ridge)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	// A Condition error still carries a usable solution.
	var cond mat.Condition
	if err := beta.SolveVec(&xtx, &xty); err != nil && !errors.As(err, &cond) {
		return nil, eris.Wrap(err, "train: solve normal equations")
	}

	coef := make([]float64, len(features))
	for j := range coef {
		coef[j] = beta.AtVec(j + 1)
	}
	return &Model{
		Kind:         KindLinear,
		FeatureNames: features,
		Intercept:    beta.AtVec(0),
		Coefficients: coef,
	}, nil
}
