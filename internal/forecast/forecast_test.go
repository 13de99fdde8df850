package forecast

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

// Helper to generate a deterministic log-sales style series
func generateLogmoveSeries(n int, base, slope, wave float64) []float64 {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = base + slope*float64(i) + wave*math.Sin(float64(i)/2)
	}
	return y
}

// Helper to punch NaN gaps into a copy of a series
func withGaps(y []float64, positions ...int) []float64 {
	out := append([]float64(nil), y...)
	for _, p := range positions {
		out[p] = math.NaN()
	}
	return out
}

func TestRegistryDefaultModels(t *testing.T) {
	names := ListFitters()

	want := map[string]bool{"mean": false, "naive": false, "drift": false, "arima": false, "ets": false}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("registry missing fitter %q", name)
		}
	}
}

func TestGetFitterUnknown(t *testing.T) {
	_, err := GetFitter("sarima")
	if err == nil {
		t.Fatal("expected error for unknown fitter")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("error should wrap ErrUnknownModel, got %v", err)
	}
}

func TestModelMapRoundTrip(t *testing.T) {
	y := generateLogmoveSeries(16, 9.0, 0.05, 0.3)

	models := make(ModelMap)
	for _, name := range []string{"mean", "naive", "drift", "arima", "ets"} {
		f, err := GetFitter(name)
		if err != nil {
			t.Fatalf("GetFitter(%s): %v", name, err)
		}
		m, err := f.Fit(y)
		if err != nil {
			t.Fatalf("Fit(%s): %v", name, err)
		}
		models[name] = m
	}

	data, err := json.Marshal(models)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ModelMap
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(decoded) != len(models) {
		t.Fatalf("decoded %d models, want %d", len(decoded), len(models))
	}

	// Decoded models must forecast identically to the originals
	for name, original := range models {
		restored, ok := decoded[name]
		if !ok {
			t.Errorf("model %q lost in round trip", name)
			continue
		}
		if restored.Kind() != original.Kind() {
			t.Errorf("model %q kind changed: %s", name, restored.Kind())
		}

		a := original.Forecast(4)
		b := restored.Forecast(4)
		for k := range a {
			if math.Abs(a[k].Value-b[k].Value) > 1e-12 {
				t.Errorf("model %q forecast[%d] changed: %f vs %f", name, k, a[k].Value, b[k].Value)
			}
		}
	}
}

func TestModelMapUnmarshalUnknownKind(t *testing.T) {
	payload := []byte(`{"mystery":{"kind":"prophet","model":{}}}`)

	var m ModelMap
	err := json.Unmarshal(payload, &m)
	if err == nil {
		t.Fatal("expected error for unknown model kind")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("error should wrap ErrUnknownModel, got %v", err)
	}
}

func TestModelSetLookup(t *testing.T) {
	f, _ := GetFitter("mean")
	m, err := f.Fit(generateLogmoveSeries(10, 9.0, 0, 0))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	set := ModelSet{
		Partition: "train_1",
		Groups: []GroupModels{
			{Store: 101, Brand: "tropicana", Models: ModelMap{"mean": m}},
		},
	}

	if _, ok := set.Group(101, "tropicana"); !ok {
		t.Error("Group lookup failed for present group")
	}
	if _, ok := set.Group(999, "tropicana"); ok {
		t.Error("Group lookup succeeded for absent group")
	}

	if _, ok := set.ModelFor(101, "tropicana", "mean"); !ok {
		t.Error("ModelFor failed for present model")
	}
	if _, ok := set.ModelFor(101, "tropicana", "ets"); ok {
		t.Error("ModelFor succeeded for absent model")
	}

	names := set.ModelNames()
	if len(names) != 1 || names[0] != "mean" {
		t.Errorf("ModelNames = %v", names)
	}
}

func TestInterpolateMissing(t *testing.T) {
	y := []float64{1, math.NaN(), math.NaN(), 4, math.NaN(), 6}

	out := interpolateMissing(y)
	want := []float64{1, 2, 3, 4, 5, 6}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}

	// Leading and trailing gaps carry the nearest observed value
	edges := interpolateMissing([]float64{math.NaN(), 5, math.NaN()})
	if edges[0] != 5 || edges[2] != 5 {
		t.Errorf("edge gaps = %v", edges)
	}
}

func TestCalculateAccuracyMetrics(t *testing.T) {
	actual := []float64{100, 200, 300}
	predicted := []float64{110, 190, 300}

	if got := CalculateMAE(actual, predicted); math.Abs(got-20.0/3) > 1e-9 {
		t.Errorf("MAE = %f", got)
	}

	wantRMSE := math.Sqrt((100.0 + 100.0 + 0) / 3)
	if got := CalculateRMSE(actual, predicted); math.Abs(got-wantRMSE) > 1e-9 {
		t.Errorf("RMSE = %f, want %f", got, wantRMSE)
	}

	// ME keeps the sign: (-10 + 10 + 0) / 3
	if got := CalculateME(actual, predicted); math.Abs(got) > 1e-9 {
		t.Errorf("ME = %f, want 0", got)
	}

	wantMAPE := (0.1 + 0.05 + 0) / 3 * 100
	if got := CalculateMAPE(actual, predicted); math.Abs(got-wantMAPE) > 1e-9 {
		t.Errorf("MAPE = %f, want %f", got, wantMAPE)
	}

	wantMPE := (-0.1 + 0.05 + 0) / 3 * 100
	if got := CalculateMPE(actual, predicted); math.Abs(got-wantMPE) > 1e-9 {
		t.Errorf("MPE = %f, want %f", got, wantMPE)
	}
}

func TestCalculateMAPESkipsZeroActuals(t *testing.T) {
	actual := []float64{0, 100}
	predicted := []float64{5, 110}

	if got := CalculateMAPE(actual, predicted); math.Abs(got-10) > 1e-9 {
		t.Errorf("MAPE = %f, want 10", got)
	}
}

func TestPredictionIntervalZScores(t *testing.T) {
	lower, upper := calculatePredictionInterval(10, 1, 0.95)
	if math.Abs(lower-(10-1.96)) > 1e-9 || math.Abs(upper-(10+1.96)) > 1e-9 {
		t.Errorf("95%% interval = [%f, %f]", lower, upper)
	}

	lower, upper = calculatePredictionInterval(10, 1, 0.99)
	if math.Abs(lower-(10-2.576)) > 1e-9 || math.Abs(upper-(10+2.576)) > 1e-9 {
		t.Errorf("99%% interval = [%f, %f]", lower, upper)
	}
}
