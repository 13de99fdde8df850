package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ojcast/ojcast/internal/config"
	"github.com/ojcast/ojcast/internal/evaluate"
	"github.com/ojcast/ojcast/internal/logging"
	"github.com/ojcast/ojcast/internal/pipeline"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	pass := flag.String("pass", pipeline.PassAll, "Pass to run: all, basic or ets")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("ojcast starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)
	logger.Info("Using dataset", "path", cfg.DatasetPath())

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create output directories", "error", err)
	}

	// 3. Create context cancelled on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
	}()

	// 4. Run the requested pass
	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		logger.Fatal("Failed to create runner", "error", err)
	}

	result, err := runner.Run(ctx, *pass)
	if err != nil {
		logger.Fatal("Run failed", "pass", *pass, "error", err)
	}

	// 5. Evaluate forecast accuracy against the test partitions
	var evals []*evaluate.Evaluation
	if result.Basic != nil {
		eval, err := evaluate.EvaluatePass(pipeline.PassBasic, result.Basic.Tables, result.Dataset.Test)
		if err != nil {
			logger.Fatal("Basic pass evaluation failed", "error", err)
		}
		evals = append(evals, eval)
	}
	if result.ETS != nil {
		eval, err := evaluate.EvaluatePass(pipeline.PassETS, result.ETS.Tables, result.Dataset.Test)
		if err != nil {
			logger.Fatal("ETS pass evaluation failed", "error", err)
		}
		evals = append(evals, eval)
	}

	if err := evaluate.WriteText(os.Stdout, evals); err != nil {
		logger.Fatal("Failed to write accuracy report", "error", err)
	}

	if cfg.Report.XLSXPath != "" {
		if err := evaluate.WriteXLSX(cfg.Report.XLSXPath, evals); err != nil {
			logger.Fatal("Failed to write accuracy workbook", "error", err)
		}
	}

	logger.Info("ojcast finished",
		"run_id", result.RunID,
		"pass", result.Pass,
		"elapsed", result.Elapsed.String())
}
