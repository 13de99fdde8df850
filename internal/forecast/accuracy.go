package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CalculateMAPE calculates Mean Absolute Percentage Error
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// CalculateME calculates Mean Error (signed, shows bias)
func CalculateME(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += actual[i] - predicted[i]
	}
	return sum / float64(len(actual))
}

// CalculateMPE calculates Mean Percentage Error (signed, shows relative bias)
func CalculateMPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += (actual[i] - predicted[i]) / actual[i]
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// meanOf returns the arithmetic mean of values
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// stdDevOf returns the sample standard deviation, 0 for fewer than two values
func stdDevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// fitStats computes in-sample accuracy over the observed grid positions.
// actual may contain NaN at missing positions; those pairs are skipped.
func fitStats(actual, fitted []float64) FitStats {
	a := make([]float64, 0, len(actual))
	f := make([]float64, 0, len(actual))
	for i := range actual {
		if i < len(fitted) && !math.IsNaN(actual[i]) && !math.IsNaN(fitted[i]) {
			a = append(a, actual[i])
			f = append(f, fitted[i])
		}
	}

	return FitStats{
		MAPE:       CalculateMAPE(a, f),
		MAE:        CalculateMAE(a, f),
		RMSE:       CalculateRMSE(a, f),
		DataPoints: len(a),
	}
}
