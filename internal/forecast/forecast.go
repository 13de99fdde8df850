package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors surfaced by fitters. Callers match with errors.Is.
var (
	ErrUnknownModel       = errors.New("unknown model")
	ErrTooFewObservations = errors.New("too few observations")
	ErrIncompleteSeries   = errors.New("series has missing observations")
	ErrConstantSeries     = errors.New("series is constant")
)

// Point represents a single forecast prediction with 95% bounds
type Point struct {
	Value float64
	Lo95  float64
	Hi95  float64
}

// FitStats contains in-sample accuracy metadata about a fitted model
type FitStats struct {
	MAPE       float64 `json:"mape,omitempty"` // Mean Absolute Percentage Error
	MAE        float64 `json:"mae,omitempty"`  // Mean Absolute Error
	RMSE       float64 `json:"rmse,omitempty"` // Root Mean Squared Error
	DataPoints int     `json:"data_points"`    // Number of observed data points used
}

// Model is a fitted model for one series. Models are immutable once fit and
// must survive a JSON round trip through their exported fields.
type Model interface {
	// Kind returns the model name
	Kind() string
	// Forecast generates predictions for the next h periods
	Forecast(h int) []Point
	// Fitted returns in-sample fitted values aligned to the training grid
	Fitted() []float64
	// Stats returns in-sample accuracy metadata
	Stats() FitStats
}

// Fitter fits a model of one kind to a series. The input may contain NaN at
// missing grid positions; each fitter documents its tolerance.
type Fitter interface {
	// Name returns the model name
	Name() string
	// Fit estimates the model on the given series
	Fit(y []float64) (Model, error)
}

// Registry holds available fitters and model prototypes for decoding
var (
	fitterRegistry = make(map[string]Fitter)
	modelProtos    = make(map[string]func() Model)
)

// Register adds a fitter and its model prototype to the registry
func Register(f Fitter, proto func() Model) {
	fitterRegistry[f.Name()] = f
	modelProtos[f.Name()] = proto
}

// GetFitter returns a fitter by name
func GetFitter(name string) (Fitter, error) {
	if f, ok := fitterRegistry[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// ListFitters returns the sorted names of available fitters
func ListFitters() []string {
	names := make([]string, 0, len(fitterRegistry))
	for name := range fitterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelMap holds a group's fitted models keyed by model name. Models are
// heterogeneous, so JSON encoding wraps each in a {kind, model} envelope and
// decoding restores the concrete type through the registry.
type ModelMap map[string]Model

type modelEnvelope struct {
	Kind  string          `json:"kind"`
	Model json.RawMessage `json:"model"`
}

// MarshalJSON implements json.Marshaler
func (m ModelMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]modelEnvelope, len(m))
	for name, model := range m {
		raw, err := json.Marshal(model)
		if err != nil {
			return nil, fmt.Errorf("encode %s model: %w", name, err)
		}
		out[name] = modelEnvelope{Kind: model.Kind(), Model: raw}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *ModelMap) UnmarshalJSON(data []byte) error {
	var raw map[string]modelEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(ModelMap, len(raw))
	for name, env := range raw {
		proto, ok := modelProtos[env.Kind]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownModel, env.Kind)
		}
		model := proto()
		if err := json.Unmarshal(env.Model, model); err != nil {
			return fmt.Errorf("decode %s model: %w", env.Kind, err)
		}
		out[name] = model
	}
	*m = out
	return nil
}

// GroupModels holds the fitted models for one (store, brand) group
type GroupModels struct {
	Store  int      `json:"store"`
	Brand  string   `json:"brand"`
	Models ModelMap `json:"models"`
}

// ModelSet is the complete fit result for one partition: every group crossed
// with every menu model, or nothing. Groups are ordered by store then brand.
type ModelSet struct {
	Partition string        `json:"partition"`
	Groups    []GroupModels `json:"groups"`
}

// Group returns the fitted models for a group
func (s *ModelSet) Group(store int, brand string) (*GroupModels, bool) {
	for i := range s.Groups {
		if s.Groups[i].Store == store && s.Groups[i].Brand == brand {
			return &s.Groups[i], true
		}
	}
	return nil, false
}

// ModelFor returns one group's fitted model of the given kind
func (s *ModelSet) ModelFor(store int, brand, name string) (Model, bool) {
	g, ok := s.Group(store, brand)
	if !ok {
		return nil, false
	}
	model, ok := g.Models[name]
	return model, ok
}

// ModelNames returns the sorted model names present in the set
func (s *ModelSet) ModelNames() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range s.Groups {
		for name := range s.Groups[i].Models {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// calculatePredictionInterval calculates prediction interval bounds
func calculatePredictionInterval(value, stdError, confidence float64) (lower, upper float64) {
	// Z-score for confidence level (approximate)
	var z float64
	switch {
	case confidence >= 0.99:
		z = 2.576
	case confidence >= 0.95:
		z = 1.96
	case confidence >= 0.90:
		z = 1.645
	default:
		z = 1.96
	}

	margin := z * stdError
	return value - margin, value + margin
}

// observedValues returns the non-NaN values of a series in order
func observedValues(y []float64) []float64 {
	out := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// interpolateMissing returns a copy of y with NaN gaps filled by linear
// interpolation between the surrounding observed values. Leading and
// trailing gaps carry the nearest observed value.
func interpolateMissing(y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)

	n := len(out)
	prev := -1 // index of last observed value
	for i := 0; i < n; i++ {
		if math.IsNaN(out[i]) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (out[i] - out[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = out[prev] + step*float64(j-prev)
			}
		} else if prev < 0 && i > 0 {
			// Leading gap
			for j := 0; j < i; j++ {
				out[j] = out[i]
			}
		}
		prev = i
	}

	if prev >= 0 && prev < n-1 {
		// Trailing gap
		for j := prev + 1; j < n; j++ {
			out[j] = out[prev]
		}
	}

	return out
}
