package forecast

import (
	"fmt"
	"math"
)

// MinARIMAObservations is the smallest observed-point count accepted by the
// ARIMA fitter
const MinARIMAObservations = 8

// ARIMAFitter fits an ARIMA(p, d, q) model, selecting the order by smallest
// AICc over a bounded grid:
// - p: order of the autoregressive (AR) part
// - d: degree of differencing (I) to make the series stationary
// - q: order of the moving average (MA) part
// NaN gaps are linearly interpolated for estimation only. A constant series
// cannot be estimated and fails the fit.
type ARIMAFitter struct {
	MaxP int // AR order bound
	MaxD int // Differencing bound
	MaxQ int // MA order bound
}

// NewARIMAFitter creates an ARIMA fitter with default order bounds
func NewARIMAFitter() *ARIMAFitter {
	return &ARIMAFitter{
		MaxP: 2,
		MaxD: 1,
		MaxQ: 2,
	}
}

func init() {
	Register(NewARIMAFitter(), func() Model { return &ARIMAModel{} })
}

// Name returns the model name
func (f *ARIMAFitter) Name() string {
	return "arima"
}

// Fit estimates ARIMA models over the order grid and keeps the best by AICc
func (f *ARIMAFitter) Fit(y []float64) (Model, error) {
	obs := observedValues(y)
	if len(obs) < MinARIMAObservations {
		return nil, fmt.Errorf("arima: %w: need at least %d observed values, got %d",
			ErrTooFewObservations, MinARIMAObservations, len(obs))
	}

	// Estimation needs a gap-free series; interpolate for estimation only
	w := interpolateMissing(y)

	if isConstant(w) {
		return nil, fmt.Errorf("arima: %w", ErrConstantSeries)
	}

	var best *ARIMAModel
	bestAICc := math.Inf(1)

	for d := 0; d <= f.MaxD; d++ {
		for p := 0; p <= f.MaxP; p++ {
			for q := 0; q <= f.MaxQ; q++ {
				if p == 0 && d == 0 && q == 0 {
					continue
				}
				model, aicc, err := fitARIMA(w, y, p, d, q)
				if err != nil {
					continue
				}
				if aicc < bestAICc {
					best = model
					bestAICc = aicc
				}
			}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("arima: no candidate order could be estimated")
	}
	return best, nil
}

// fitARIMA estimates one candidate order on the gap-free series w, scoring
// fitted values against the original series y (NaN positions skipped)
func fitARIMA(w, y []float64, p, d, q int) (*ARIMAModel, float64, error) {
	diffed := difference(w, d)
	if len(diffed) < p+q+2 {
		return nil, 0, fmt.Errorf("insufficient data after differencing: need at least %d, got %d", p+q+2, len(diffed))
	}

	// Center on the mean when not differencing; d >= 1 removes the level
	mu := 0.0
	if d == 0 {
		mu = meanOf(diffed)
	}
	dev := make([]float64, len(diffed))
	for i := range diffed {
		dev[i] = diffed[i] - mu
	}

	arCoeffs := estimateARCoefficients(dev, p)
	maCoeffs := estimateMACoefficients(dev, arCoeffs, q)
	for _, c := range arCoeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, 0, fmt.Errorf("unstable AR estimate")
		}
	}

	fittedDev, residuals := arimaFitted(dev, arCoeffs, maCoeffs)

	start := max(p, q)
	n := len(dev) - start
	if n < 3 {
		return nil, 0, fmt.Errorf("too few residuals for variance estimate")
	}
	sigma2 := 0.0
	for t := start; t < len(dev); t++ {
		sigma2 += residuals[t] * residuals[t]
	}
	sigma2 /= float64(n)
	if sigma2 <= 0 || math.IsNaN(sigma2) {
		return nil, 0, fmt.Errorf("degenerate residual variance")
	}

	// AICc with the Gaussian likelihood shortcut
	k := float64(p + q)
	if d == 0 {
		k++ // constant term
	}
	k++ // innovation variance
	nf := float64(n)
	aicc := nf*math.Log(sigma2) + 2*k
	if nf-k-1 > 0 {
		aicc += 2 * k * (k + 1) / (nf - k - 1)
	}

	// Fitted values on the original scale, aligned to the training grid.
	// Warm-up positions carry the (interpolated) series itself.
	fitted := make([]float64, len(w))
	copy(fitted, w)
	for t := start; t < len(dev); t++ {
		idx := t + d
		if d == 0 {
			fitted[idx] = mu + fittedDev[t]
		} else {
			fitted[idx] = w[idx-1] + fittedDev[t]
		}
	}

	tail := max(max(p, q), 1)
	return &ARIMAModel{
		P:          p,
		D:          d,
		Q:          q,
		AR:         arCoeffs,
		MA:         maCoeffs,
		Mean:       mu,
		Sigma:      math.Sqrt(sigma2),
		LastLevel:  w[len(w)-1],
		DevTail:    tailOf(dev, tail),
		ResidTail:  tailOf(residuals, tail),
		FittedVals: fitted,
		N:          len(w),
		FitInfo:    fitStats(y, fitted),
	}, aicc, nil
}

// ARIMAModel is a fitted ARIMA(p, d, q) model. DevTail and ResidTail hold
// the most recent differenced deviations and residuals so the forecast
// recursion can continue after a save/load cycle.
type ARIMAModel struct {
	P          int       `json:"p"`
	D          int       `json:"d"`
	Q          int       `json:"q"`
	AR         []float64 `json:"ar,omitempty"`
	MA         []float64 `json:"ma,omitempty"`
	Mean       float64   `json:"mean,omitempty"`
	Sigma      float64   `json:"sigma"`
	LastLevel  float64   `json:"last_level"`
	DevTail    []float64 `json:"dev_tail"`
	ResidTail  []float64 `json:"resid_tail"`
	FittedVals []float64 `json:"fitted"`
	N          int       `json:"n"`
	FitInfo    FitStats  `json:"stats"`
}

// Kind returns the model name
func (m *ARIMAModel) Kind() string {
	return "arima"
}

// Forecast runs the ARIMA recursion h periods ahead. Future residuals are
// zero; forecasts re-integrate from the last level when d = 1.
func (m *ARIMAModel) Forecast(h int) []Point {
	if h <= 0 {
		return nil
	}

	dev := append([]float64(nil), m.DevTail...)
	resid := append([]float64(nil), m.ResidTail...)
	level := m.LastLevel

	points := make([]Point, h)
	for k := 0; k < h; k++ {
		arComponent := 0.0
		for i := 0; i < len(m.AR) && i < len(dev); i++ {
			arComponent += m.AR[i] * dev[len(dev)-1-i]
		}

		maComponent := 0.0
		for i := 0; i < len(m.MA) && i < len(resid); i++ {
			maComponent += m.MA[i] * resid[len(resid)-1-i]
		}

		nextDev := arComponent + maComponent
		dev = append(dev, nextDev)
		resid = append(resid, 0)

		var value float64
		if m.D == 0 {
			value = m.Mean + nextDev
		} else {
			level += nextDev
			value = level
		}

		stdError := m.Sigma * math.Sqrt(float64(k+1))
		lower, upper := calculatePredictionInterval(value, stdError, 0.95)
		points[k] = Point{Value: value, Lo95: lower, Hi95: upper}
	}
	return points
}

// Fitted returns in-sample fitted values
func (m *ARIMAModel) Fitted() []float64 {
	return m.FittedVals
}

// Stats returns in-sample accuracy metadata
func (m *ARIMAModel) Stats() FitStats {
	return m.FitInfo
}

// difference applies differencing d times
func difference(values []float64, d int) []float64 {
	result := values
	for i := 0; i < d; i++ {
		if len(result) < 2 {
			return nil
		}
		diffed := make([]float64, len(result)-1)
		for j := 1; j < len(result); j++ {
			diffed[j-1] = result[j] - result[j-1]
		}
		result = diffed
	}
	return result
}

// estimateARCoefficients estimates AR coefficients using Yule-Walker equations
func estimateARCoefficients(values []float64, p int) []float64 {
	if p == 0 || len(values) < p+1 {
		return []float64{}
	}

	acf := autocorrelation(values, p)
	return levinsonDurbin(acf, p)
}

// estimateMACoefficients estimates MA coefficients from AR residuals
func estimateMACoefficients(values []float64, arCoeffs []float64, q int) []float64 {
	if q == 0 {
		return []float64{}
	}

	// Residuals from the AR model
	residuals := make([]float64, len(values))
	p := len(arCoeffs)
	for t := p; t < len(values); t++ {
		predicted := 0.0
		for i := 0; i < p; i++ {
			predicted += arCoeffs[i] * values[t-1-i]
		}
		residuals[t] = values[t] - predicted
	}

	// Approximate MA coefficients from the residual autocorrelation;
	// the damping keeps the recursion stable
	maCoeffs := make([]float64, q)
	acf := autocorrelation(residuals[p:], q)
	for i := 0; i < q && i < len(acf); i++ {
		maCoeffs[i] = acf[i] * 0.5
	}

	return maCoeffs
}

// autocorrelation calculates the autocorrelation function up to lag k
func autocorrelation(values []float64, k int) []float64 {
	n := len(values)
	if n == 0 || k <= 0 {
		return []float64{}
	}

	mu := meanOf(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mu
		variance += diff * diff
	}

	if variance == 0 {
		return make([]float64, k)
	}

	acf := make([]float64, k)
	for lag := 1; lag <= k; lag++ {
		cov := 0.0
		for t := lag; t < n; t++ {
			cov += (values[t] - mu) * (values[t-lag] - mu)
		}
		acf[lag-1] = cov / variance
	}

	return acf
}

// levinsonDurbin solves the Yule-Walker equations
func levinsonDurbin(acf []float64, p int) []float64 {
	if len(acf) == 0 || p == 0 {
		return []float64{}
	}

	if len(acf) < p {
		p = len(acf)
	}

	phi := make([][]float64, p+1)
	for i := range phi {
		phi[i] = make([]float64, p+1)
	}

	phi[1][1] = acf[0]
	v := 1 - acf[0]*acf[0]

	for k := 2; k <= p; k++ {
		num := acf[k-1]
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-1-j]
		}

		if v == 0 {
			break
		}

		phi[k][k] = num / v

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}

		v = v * (1 - phi[k][k]*phi[k][k])
	}

	result := make([]float64, p)
	for i := 1; i <= p; i++ {
		result[i-1] = phi[p][i]
	}

	return result
}

// arimaFitted calculates fitted values and residuals in differenced space
func arimaFitted(values []float64, arCoeffs, maCoeffs []float64) (fitted, residuals []float64) {
	n := len(values)
	p := len(arCoeffs)
	q := len(maCoeffs)
	start := max(p, q)

	fitted = make([]float64, n)
	residuals = make([]float64, n)
	if n <= start {
		return fitted, residuals
	}

	for t := start; t < n; t++ {
		arComponent := 0.0
		for i := 0; i < p; i++ {
			arComponent += arCoeffs[i] * values[t-1-i]
		}

		maComponent := 0.0
		for i := 0; i < q && t-1-i >= 0; i++ {
			maComponent += maCoeffs[i] * residuals[t-1-i]
		}

		fitted[t] = arComponent + maComponent
		residuals[t] = values[t] - fitted[t]
	}

	return fitted, residuals
}

// isConstant reports whether every value equals the first
func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// tailOf returns the last n values (or all of them when shorter)
func tailOf(values []float64, n int) []float64 {
	if len(values) <= n {
		return append([]float64(nil), values...)
	}
	return append([]float64(nil), values[len(values)-n:]...)
}
