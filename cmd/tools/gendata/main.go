package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/ojcast/ojcast/internal/artifact"
	"github.com/ojcast/ojcast/internal/compression"
	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/pipeline"
)

// GenConfig holds generator configuration
type GenConfig struct {
	Root        string
	Example     string
	File        string
	Partitions  int
	Stores      int
	Brands      int
	Weeks       int
	Horizon     int
	Missing     float64
	Seed        int64
	Compression string
}

// Brand labels follow the orange juice category; extra brands get numbered.
var brandNames = []string{
	"tropicana", "minute.maid", "dominicks", "florida.gold",
	"citrus.hill", "tree.fresh", "florida.natural",
}

func main() {
	// Parse flags
	config := GenConfig{}
	flag.StringVar(&config.Root, "root", "./data", "Artifact store root directory")
	flag.StringVar(&config.Example, "example", "grocery_sales", "Dataset identifier")
	flag.StringVar(&config.File, "file", "data.Rdata", "Dataset artifact file name")
	flag.IntVar(&config.Partitions, "partitions", 2, "Number of train/test partitions")
	flag.IntVar(&config.Stores, "stores", 2, "Stores per partition")
	flag.IntVar(&config.Brands, "brands", 3, "Brands per store")
	flag.IntVar(&config.Weeks, "weeks", 100, "Training weeks per group")
	flag.IntVar(&config.Horizon, "horizon", 8, "Test weeks per group")
	flag.Float64Var(&config.Missing, "missing", 0.05, "Fraction of training observations flagged missing")
	flag.Int64Var(&config.Seed, "seed", 42, "Random seed; runs are deterministic for a fixed seed")
	flag.StringVar(&config.Compression, "compression", "snappy", "Artifact payload codec: none, snappy")
	flag.Parse()

	if err := run(config); err != nil {
		fmt.Fprintf(os.Stderr, "gendata: %v\n", err)
		os.Exit(1)
	}
}

func run(config GenConfig) error {
	if config.Partitions < 1 || config.Stores < 1 || config.Brands < 1 {
		return fmt.Errorf("partitions, stores and brands must all be at least 1")
	}
	if config.Weeks < 8 {
		return fmt.Errorf("weeks must be at least 8 so every model has enough observations")
	}
	if config.Horizon < 1 {
		return fmt.Errorf("horizon must be at least 1")
	}
	if config.Missing < 0 || config.Missing >= 1 {
		return fmt.Errorf("missing must be in [0, 1)")
	}

	comp, err := compression.ByName(config.Compression)
	if err != nil {
		return err
	}

	fmt.Printf("=== ojcast Dataset Generator ===\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Root:        %s\n", config.Root)
	fmt.Printf("  Example:     %s\n", config.Example)
	fmt.Printf("  File:        %s\n", config.File)
	fmt.Printf("  Partitions:  %d\n", config.Partitions)
	fmt.Printf("  Stores:      %d\n", config.Stores)
	fmt.Printf("  Brands:      %d\n", config.Brands)
	fmt.Printf("  Weeks:       %d (+%d test)\n", config.Weeks, config.Horizon)
	fmt.Printf("  Missing:     %.1f%%\n", config.Missing*100)
	fmt.Printf("  Seed:        %d\n", config.Seed)
	fmt.Printf("  Compression: %s\n", config.Compression)
	fmt.Printf("\n")

	rng := rand.New(rand.NewSource(config.Seed))
	ds, flagged := generate(config, rng)
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("generated dataset failed validation: %w", err)
	}

	store := artifact.NewStore(config.Root, comp)
	err = store.Save(config.Example, config.File, map[string]any{
		pipeline.ObjTrain: ds.Train,
		pipeline.ObjTest:  ds.Test,
	})
	if err != nil {
		return err
	}

	groups := config.Stores * config.Brands
	fmt.Printf("Wrote %s\n", store.Path(config.Example, config.File))
	fmt.Printf("  Groups per partition: %d\n", groups)
	fmt.Printf("  Train rows:           %d\n", config.Partitions*groups*config.Weeks)
	fmt.Printf("  Test rows:            %d\n", config.Partitions*groups*config.Horizon)
	fmt.Printf("  Missing flagged:      %d\n", flagged)
	return nil
}

// generate builds the partitions. Each partition owns a disjoint set of
// store IDs; the series are log sales with trend, annual seasonality and
// noise, so the basic models all have signal to work with.
func generate(config GenConfig, rng *rand.Rand) (*dataset.Dataset, int) {
	const firstWeek = 40

	ds := &dataset.Dataset{}
	flagged := 0
	for p := 0; p < config.Partitions; p++ {
		name := fmt.Sprintf("partition_%d", p+1)
		var trainRows, testRows []dataset.Row

		for s := 0; s < config.Stores; s++ {
			storeID := 2 + p*config.Stores + s
			for b := 0; b < config.Brands; b++ {
				brand := brandName(b)
				base := 8.5 + 0.2*float64(s) + 0.1*float64(b)
				trend := 0.002 + 0.004*rng.Float64()

				for i := 0; i < config.Weeks+config.Horizon; i++ {
					week := firstWeek + i
					row := dataset.Row{
						Store: storeID,
						Brand: brand,
						Week:  week,
						Logmove: base + trend*float64(i) +
							0.15*math.Sin(2*math.Pi*float64(week)/52) +
							0.1*rng.NormFloat64(),
						Price: 1.5 + rng.Float64(),
						Deal:  rng.Float64() < 0.25,
						Feat:  rng.Float64() < 0.1,
					}

					if i < config.Weeks {
						if config.Missing > 0 && rng.Float64() < config.Missing {
							row.Logmove = 0
							row.Missing = true
							flagged++
						}
						trainRows = append(trainRows, row)
					} else {
						testRows = append(testRows, row)
					}
				}
			}
		}

		ds.Train = append(ds.Train, dataset.Partition{Name: name, Rows: trainRows})
		ds.Test = append(ds.Test, dataset.Partition{Name: name, Rows: testRows})
	}
	return ds, flagged
}

func brandName(i int) string {
	if i < len(brandNames) {
		return brandNames[i]
	}
	return fmt.Sprintf("brand.%d", i+1)
}
