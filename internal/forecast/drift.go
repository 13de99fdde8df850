package forecast

import (
	"fmt"
	"math"
)

// DriftFitter fits the random walk with drift: forecasts follow the straight
// line between the first and last observed values. NaN gaps are skipped; the
// slope uses the grid distance between the endpoints, so gaps do not
// compress it.
type DriftFitter struct{}

// NewDriftFitter creates a new drift fitter
func NewDriftFitter() *DriftFitter {
	return &DriftFitter{}
}

func init() {
	Register(NewDriftFitter(), func() Model { return &DriftModel{} })
}

// Name returns the model name
func (f *DriftFitter) Name() string {
	return "drift"
}

// Fit estimates the drift model
func (f *DriftFitter) Fit(y []float64) (Model, error) {
	first, firstIdx, ok := firstObserved(y)
	if !ok {
		return nil, fmt.Errorf("drift: %w: no observed values", ErrTooFewObservations)
	}
	last, lastIdx := lastObserved(y)
	if lastIdx == firstIdx {
		return nil, fmt.Errorf("drift: %w: need at least 2 observed values", ErrTooFewObservations)
	}

	span := lastIdx - firstIdx
	slope := (last - first) / float64(span)

	// Fitted value at each grid position is the previous observed value
	// plus one drift step
	fitted := make([]float64, len(y))
	prev := first
	for i := range y {
		if i <= firstIdx {
			fitted[i] = first
		} else {
			fitted[i] = prev + slope
		}
		if !math.IsNaN(y[i]) {
			prev = y[i]
		}
	}

	var residuals []float64
	for i := firstIdx + 1; i < len(y); i++ {
		if !math.IsNaN(y[i]) {
			residuals = append(residuals, y[i]-fitted[i])
		}
	}

	return &DriftModel{
		Last:       last,
		Slope:      slope,
		Sigma:      stdDevOf(residuals),
		N:          len(observedValues(y)),
		FittedVals: fitted,
		FitInfo:    fitStats(y, fitted),
	}, nil
}

// firstObserved returns the earliest non-NaN value and its index
func firstObserved(y []float64) (float64, int, bool) {
	for i, v := range y {
		if !math.IsNaN(v) {
			return v, i, true
		}
	}
	return 0, 0, false
}

// lastObserved returns the latest non-NaN value and its index
func lastObserved(y []float64) (float64, int) {
	for i := len(y) - 1; i >= 0; i-- {
		if !math.IsNaN(y[i]) {
			return y[i], i
		}
	}
	return 0, -1
}

// DriftModel is a fitted random walk with drift
type DriftModel struct {
	Last       float64   `json:"last"`
	Slope      float64   `json:"slope"`
	Sigma      float64   `json:"sigma"`
	N          int       `json:"n"`
	FittedVals []float64 `json:"fitted"`
	FitInfo    FitStats  `json:"stats"`
}

// Kind returns the model name
func (m *DriftModel) Kind() string {
	return "drift"
}

// Forecast extends the drift line h periods ahead, with the interval
// widening by sqrt(k)
func (m *DriftModel) Forecast(h int) []Point {
	if h <= 0 {
		return nil
	}

	points := make([]Point, h)
	for k := range points {
		value := m.Last + float64(k+1)*m.Slope
		stdError := m.Sigma * math.Sqrt(float64(k+1))
		lower, upper := calculatePredictionInterval(value, stdError, 0.95)
		points[k] = Point{Value: value, Lo95: lower, Hi95: upper}
	}
	return points
}

// Fitted returns in-sample fitted values
func (m *DriftModel) Fitted() []float64 {
	return m.FittedVals
}

// Stats returns in-sample accuracy metadata
func (m *DriftModel) Stats() FitStats {
	return m.FitInfo
}
