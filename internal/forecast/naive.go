package forecast

import (
	"fmt"
	"math"
)

// NaiveFitter fits the naive (random walk) model: every forecast is the last
// observed value. NaN gaps are skipped when locating the last observation.
type NaiveFitter struct{}

// NewNaiveFitter creates a new naive fitter
func NewNaiveFitter() *NaiveFitter {
	return &NaiveFitter{}
}

func init() {
	Register(NewNaiveFitter(), func() Model { return &NaiveModel{} })
}

// Name returns the model name
func (f *NaiveFitter) Name() string {
	return "naive"
}

// Fit estimates the naive model
func (f *NaiveFitter) Fit(y []float64) (Model, error) {
	obs := observedValues(y)
	if len(obs) < 2 {
		return nil, fmt.Errorf("naive: %w: need at least 2 observed values, got %d", ErrTooFewObservations, len(obs))
	}

	// One-step changes between consecutive observed values drive the
	// random-walk variance
	diffs := make([]float64, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		diffs[i-1] = obs[i] - obs[i-1]
	}
	sigma := stdDevOf(diffs)

	// Fitted value at each grid position is the previous observed value;
	// the first position has none, so it carries itself
	fitted := make([]float64, len(y))
	last := obs[0]
	for i := range y {
		fitted[i] = last
		if !math.IsNaN(y[i]) {
			last = y[i]
		}
	}

	return &NaiveModel{
		Last:       obs[len(obs)-1],
		Sigma:      sigma,
		N:          len(obs),
		FittedVals: fitted,
		FitInfo:    fitStats(y, fitted),
	}, nil
}

// NaiveModel is a fitted naive model
type NaiveModel struct {
	Last       float64   `json:"last"`
	Sigma      float64   `json:"sigma"`
	N          int       `json:"n"`
	FittedVals []float64 `json:"fitted"`
	FitInfo    FitStats  `json:"stats"`
}

// Kind returns the model name
func (m *NaiveModel) Kind() string {
	return "naive"
}

// Forecast returns h point forecasts at the last observed value, with the
// random-walk interval widening by sqrt(k)
func (m *NaiveModel) Forecast(h int) []Point {
	if h <= 0 {
		return nil
	}

	points := make([]Point, h)
	for k := range points {
		stdError := m.Sigma * math.Sqrt(float64(k+1))
		lower, upper := calculatePredictionInterval(m.Last, stdError, 0.95)
		points[k] = Point{Value: m.Last, Lo95: lower, Hi95: upper}
	}
	return points
}

// Fitted returns in-sample fitted values
func (m *NaiveModel) Fitted() []float64 {
	return m.FittedVals
}

// Stats returns in-sample accuracy metadata
func (m *NaiveModel) Stats() FitStats {
	return m.FitInfo
}
