package forecast

import (
	"fmt"
	"math"
)

// MeanFitter fits the mean model: every forecast is the average of the
// observed values. NaN gaps are skipped.
type MeanFitter struct{}

// NewMeanFitter creates a new mean fitter
func NewMeanFitter() *MeanFitter {
	return &MeanFitter{}
}

func init() {
	Register(NewMeanFitter(), func() Model { return &MeanModel{} })
}

// Name returns the model name
func (f *MeanFitter) Name() string {
	return "mean"
}

// Fit estimates the mean model
func (f *MeanFitter) Fit(y []float64) (Model, error) {
	obs := observedValues(y)
	if len(obs) == 0 {
		return nil, fmt.Errorf("mean: %w: no observed values", ErrTooFewObservations)
	}

	mu := meanOf(obs)
	sd := stdDevOf(obs)

	fitted := make([]float64, len(y))
	for i := range fitted {
		fitted[i] = mu
	}

	return &MeanModel{
		Mu:         mu,
		SD:         sd,
		N:          len(obs),
		FittedVals: fitted,
		FitInfo:    fitStats(y, fitted),
	}, nil
}

// MeanModel is a fitted mean model
type MeanModel struct {
	Mu         float64   `json:"mu"`
	SD         float64   `json:"sd"`
	N          int       `json:"n"`
	FittedVals []float64 `json:"fitted"`
	FitInfo    FitStats  `json:"stats"`
}

// Kind returns the model name
func (m *MeanModel) Kind() string {
	return "mean"
}

// Forecast returns h identical point forecasts at the series mean. The
// interval does not widen with the horizon: the mean's predictive variance
// is constant.
func (m *MeanModel) Forecast(h int) []Point {
	if h <= 0 {
		return nil
	}

	stdError := m.SD * math.Sqrt(1+1/float64(m.N))
	lower, upper := calculatePredictionInterval(m.Mu, stdError, 0.95)

	points := make([]Point, h)
	for k := range points {
		points[k] = Point{Value: m.Mu, Lo95: lower, Hi95: upper}
	}
	return points
}

// Fitted returns in-sample fitted values
func (m *MeanModel) Fitted() []float64 {
	return m.FittedVals
}

// Stats returns in-sample accuracy metadata
func (m *MeanModel) Stats() FitStats {
	return m.FitInfo
}
