package forecast

import (
	"fmt"
	"math"
)

// MinETSObservations is the smallest series length accepted by the ETS fitter
const MinETSObservations = 4

// ETSFitter fits additive-trend exponential smoothing (Holt's linear
// method). The smoothing parameters are chosen by grid search over the
// in-sample sum of squared errors. Unlike the basic fitters, ETS requires a
// complete series: any NaN fails the fit with ErrIncompleteSeries, which is
// what forces imputation before the second pass.
type ETSFitter struct{}

// NewETSFitter creates a new ETS fitter
func NewETSFitter() *ETSFitter {
	return &ETSFitter{}
}

func init() {
	Register(NewETSFitter(), func() Model { return &ETSModel{} })
}

// Name returns the model name
func (f *ETSFitter) Name() string {
	return "ets"
}

// Fit estimates the ETS model
func (f *ETSFitter) Fit(y []float64) (Model, error) {
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("ets: %w: gap at position %d", ErrIncompleteSeries, i)
		}
	}

	if len(y) < MinETSObservations {
		return nil, fmt.Errorf("ets: %w: need at least %d values, got %d",
			ErrTooFewObservations, MinETSObservations, len(y))
	}

	// Grid search over the smoothing parameters, minimizing SSE
	bestAlpha, bestBeta := 0.3, 0.1
	bestSSE := math.Inf(1)
	for alpha := 0.1; alpha <= 0.9; alpha += 0.1 {
		for beta := 0.01; beta <= 0.5; beta += 0.05 {
			sse := holtSSE(y, alpha, beta)
			if sse < bestSSE {
				bestSSE = sse
				bestAlpha = alpha
				bestBeta = beta
			}
		}
	}

	level, trend, fitted := holtSmooth(y, bestAlpha, bestBeta)

	residuals := make([]float64, 0, len(y)-1)
	for t := 1; t < len(y); t++ {
		residuals = append(residuals, y[t]-fitted[t])
	}

	return &ETSModel{
		Alpha:      bestAlpha,
		Beta:       bestBeta,
		Level:      level,
		Trend:      trend,
		Sigma:      stdDevOf(residuals),
		SSE:        bestSSE,
		N:          len(y),
		FittedVals: fitted,
		FitInfo:    fitStats(y, fitted),
	}, nil
}

// holtSmooth runs Holt's linear recursion and returns the final state and
// one-step-ahead fitted values
func holtSmooth(y []float64, alpha, beta float64) (level, trend float64, fitted []float64) {
	level = y[0]
	trend = y[1] - y[0]

	fitted = make([]float64, len(y))
	fitted[0] = y[0]

	for t := 1; t < len(y); t++ {
		fitted[t] = level + trend

		newLevel := alpha*y[t] + (1-alpha)*(level+trend)
		newTrend := beta*(newLevel-level) + (1-beta)*trend
		level = newLevel
		trend = newTrend
	}

	return level, trend, fitted
}

// holtSSE returns the in-sample sum of squared one-step errors
func holtSSE(y []float64, alpha, beta float64) float64 {
	_, _, fitted := holtSmooth(y, alpha, beta)

	sse := 0.0
	for t := 1; t < len(y); t++ {
		diff := y[t] - fitted[t]
		sse += diff * diff
	}
	return sse
}

// ETSModel is a fitted additive-trend exponential smoothing model
type ETSModel struct {
	Alpha      float64   `json:"alpha"`
	Beta       float64   `json:"beta"`
	Level      float64   `json:"level"`
	Trend      float64   `json:"trend"`
	Sigma      float64   `json:"sigma"`
	SSE        float64   `json:"sse"`
	N          int       `json:"n"`
	FittedVals []float64 `json:"fitted"`
	FitInfo    FitStats  `json:"stats"`
}

// Kind returns the model name
func (m *ETSModel) Kind() string {
	return "ets"
}

// Forecast extends the level and trend h periods ahead, with the interval
// widening by sqrt(k)
func (m *ETSModel) Forecast(h int) []Point {
	if h <= 0 {
		return nil
	}

	points := make([]Point, h)
	for k := range points {
		value := m.Level + float64(k+1)*m.Trend
		stdError := m.Sigma * math.Sqrt(float64(k+1))
		lower, upper := calculatePredictionInterval(value, stdError, 0.95)
		points[k] = Point{Value: value, Lo95: lower, Hi95: upper}
	}
	return points
}

// Fitted returns in-sample fitted values
func (m *ETSModel) Fitted() []float64 {
	return m.FittedVals
}

// Stats returns in-sample accuracy metadata
func (m *ETSModel) Stats() FitStats {
	return m.FitInfo
}
