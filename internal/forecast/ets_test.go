package forecast

import (
	"errors"
	"math"
	"testing"
)

func TestETSFitterName(t *testing.T) {
	f := NewETSFitter()
	if f.Name() != "ets" {
		t.Errorf("Expected name 'ets', got %s", f.Name())
	}
}

func TestETSRecoversLinearTrend(t *testing.T) {
	// On an exact line Holt's recursion tracks level and trend exactly,
	// so forecasts continue the line
	y := make([]float64, 12)
	for i := range y {
		y[i] = 9.0 + 0.25*float64(i)
	}

	m, err := NewETSFitter().Fit(y)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	ets := m.(*ETSModel)
	if math.Abs(ets.Trend-0.25) > 1e-6 {
		t.Errorf("Trend = %f, want 0.25", ets.Trend)
	}

	points := m.Forecast(4)
	for k, p := range points {
		want := 9.0 + 0.25*float64(11+k+1)
		if math.Abs(p.Value-want) > 1e-6 {
			t.Errorf("prediction[%d] = %f, want %f", k, p.Value, want)
		}
	}
}

func TestETSParameterGrid(t *testing.T) {
	y := generateLogmoveSeries(20, 9.0, 0.05, 0.6)

	m, err := NewETSFitter().Fit(y)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	ets := m.(*ETSModel)
	if ets.Alpha < 0.1 || ets.Alpha > 0.9 {
		t.Errorf("Alpha = %f out of grid", ets.Alpha)
	}
	if ets.Beta < 0.01 || ets.Beta > 0.5 {
		t.Errorf("Beta = %f out of grid", ets.Beta)
	}
	if ets.SSE < 0 {
		t.Errorf("SSE = %f", ets.SSE)
	}
}

func TestETSRejectsIncompleteSeries(t *testing.T) {
	y := withGaps(generateLogmoveSeries(12, 9.0, 0.1, 0.2), 4)

	_, err := NewETSFitter().Fit(y)
	if err == nil {
		t.Fatal("Expected error for series with gaps")
	}
	if !errors.Is(err, ErrIncompleteSeries) {
		t.Errorf("error should wrap ErrIncompleteSeries, got %v", err)
	}
}

func TestETSTooShort(t *testing.T) {
	_, err := NewETSFitter().Fit([]float64{9.0, 9.1, 9.2})
	if !errors.Is(err, ErrTooFewObservations) {
		t.Errorf("expected ErrTooFewObservations, got %v", err)
	}
}

func TestETSFittedLength(t *testing.T) {
	y := generateLogmoveSeries(15, 9.0, 0.02, 0.5)

	m, err := NewETSFitter().Fit(y)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(m.Fitted()) != len(y) {
		t.Errorf("fitted length %d, want %d", len(m.Fitted()), len(y))
	}
	if m.Stats().DataPoints != len(y) {
		t.Errorf("DataPoints = %d, want %d", m.Stats().DataPoints, len(y))
	}
}

func BenchmarkETSFit(b *testing.B) {
	y := generateLogmoveSeries(120, 9.0, 0.01, 0.4)
	f := NewETSFitter()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Fit(y); err != nil {
			b.Fatal(err)
		}
	}
}
