package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/pool"
)

// BenchConfig holds benchmark configuration
type BenchConfig struct {
	Groups  int
	Weeks   int
	Workers int
	Models  string
	Rounds  int
	Horizon int
	Seed    int64
}

// Metrics collects fit outcomes across workers
type Metrics struct {
	Latencies []float64 // ms
	Success   int64
	Errors    int64
	FirstErr  string
	mu        sync.Mutex
}

// Result represents benchmark results for one model
type Result struct {
	Model      string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // fits/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

func main() {
	// Parse flags
	config := BenchConfig{}
	flag.IntVar(&config.Groups, "groups", 200, "Number of synthetic series")
	flag.IntVar(&config.Weeks, "weeks", 120, "Observations per series")
	flag.IntVar(&config.Workers, "workers", 4, "Worker pool size")
	flag.StringVar(&config.Models, "models", "mean,naive,drift,arima,ets", "Comma-separated model menu")
	flag.IntVar(&config.Rounds, "rounds", 5, "Fit rounds per series")
	flag.IntVar(&config.Horizon, "horizon", 8, "Forecast horizon after each fit")
	flag.Int64Var(&config.Seed, "seed", 42, "Random seed")
	flag.Parse()

	menu := strings.Split(config.Models, ",")
	for i := range menu {
		menu[i] = strings.TrimSpace(menu[i])
	}

	fmt.Printf("=== ojcast Fit Benchmark ===\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Groups:  %d\n", config.Groups)
	fmt.Printf("  Weeks:   %d\n", config.Weeks)
	fmt.Printf("  Workers: %d\n", config.Workers)
	fmt.Printf("  Models:  %s\n", config.Models)
	fmt.Printf("  Rounds:  %d\n", config.Rounds)
	fmt.Printf("  Horizon: %d\n", config.Horizon)
	fmt.Printf("  Seed:    %d\n", config.Seed)

	p, err := pool.New(config.Workers, menu)
	if err != nil {
		fmt.Fprintf(os.Stderr, "benchmark: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	series := makeSeries(config)

	fmt.Printf("\n=== Benchmark Results ===\n\n")
	for _, model := range menu {
		result, err := runModel(p, model, series, config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "benchmark: %v\n", err)
			os.Exit(1)
		}
		displayResult(result)
		fmt.Printf("\n")
	}
}

// makeSeries builds the shared series set: trend plus annual seasonality
// plus noise, on the log-sales scale the models expect.
func makeSeries(config BenchConfig) [][]float64 {
	rng := rand.New(rand.NewSource(config.Seed))
	out := make([][]float64, config.Groups)
	for g := range out {
		base := 8 + 2*rng.Float64()
		trend := 0.002 + 0.004*rng.Float64()
		s := make([]float64, config.Weeks)
		for i := range s {
			s[i] = base + trend*float64(i) +
				0.15*math.Sin(2*math.Pi*float64(i)/52) +
				0.1*rng.NormFloat64()
		}
		out[g] = s
	}
	return out
}

func runModel(p *pool.Pool, model string, series [][]float64, config BenchConfig) (Result, error) {
	fitter, err := forecast.GetFitter(model)
	if err != nil {
		return Result{}, err
	}

	metrics := &Metrics{}
	total := len(series) * config.Rounds
	start := time.Now()

	err = p.Map(context.Background(), total, func(ctx context.Context, i int) error {
		y := series[i%len(series)]

		fitStart := time.Now()
		m, fitErr := fitter.Fit(y)
		if fitErr == nil {
			m.Forecast(config.Horizon)
		}
		elapsed := float64(time.Since(fitStart).Microseconds()) / 1000.0

		// Failed fits are counted, not fatal; the point is throughput.
		metrics.mu.Lock()
		if fitErr != nil {
			metrics.Errors++
			if metrics.FirstErr == "" {
				metrics.FirstErr = fitErr.Error()
			}
		} else {
			metrics.Success++
			metrics.Latencies = append(metrics.Latencies, elapsed)
		}
		metrics.mu.Unlock()
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return buildResult(model, metrics, int64(total), time.Since(start)), nil
}

func buildResult(model string, metrics *Metrics, total int64, duration time.Duration) Result {
	result := Result{
		Model:      model,
		TotalOps:   total,
		SuccessOps: metrics.Success,
		ErrorOps:   metrics.Errors,
		Duration:   duration,
		ErrorMsg:   metrics.FirstErr,
	}

	if duration.Seconds() > 0 {
		result.Throughput = float64(metrics.Success) / duration.Seconds()
	}

	latencies := metrics.Latencies
	if len(latencies) == 0 {
		return result
	}
	sort.Float64s(latencies)

	sum := 0.0
	for _, l := range latencies {
		sum += l
	}
	result.AvgLatency = sum / float64(len(latencies))
	result.MinLatency = latencies[0]
	result.MaxLatency = latencies[len(latencies)-1]
	result.P50Latency = percentile(latencies, 50)
	result.P95Latency = percentile(latencies, 95)
	result.P99Latency = percentile(latencies, 99)
	return result
}

// percentile expects a sorted slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted)) * p / 100.0))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func displayResult(r Result) {
	fmt.Printf("=== %s ===\n", r.Model)
	fmt.Printf("Total Fits:  %d\n", r.TotalOps)
	fmt.Printf("Success:     %d (%.2f%%)\n", r.SuccessOps, float64(r.SuccessOps)/float64(r.TotalOps)*100)
	fmt.Printf("Errors:      %d (%.2f%%)\n", r.ErrorOps, float64(r.ErrorOps)/float64(r.TotalOps)*100)
	fmt.Printf("Duration:    %s\n", r.Duration)
	fmt.Printf("Throughput:  %.2f fits/sec\n", r.Throughput)
	if r.ErrorOps > 0 && len(r.ErrorMsg) > 0 {
		fmt.Printf("First Error: %s\n", r.ErrorMsg)
	}
	fmt.Printf("\nLatency (ms):\n")
	fmt.Printf("  Min:  %.2f\n", r.MinLatency)
	fmt.Printf("  Avg:  %.2f\n", r.AvgLatency)
	fmt.Printf("  P50:  %.2f\n", r.P50Latency)
	fmt.Printf("  P95:  %.2f\n", r.P95Latency)
	fmt.Printf("  P99:  %.2f\n", r.P99Latency)
	fmt.Printf("  Max:  %.2f\n", r.MaxLatency)
}
