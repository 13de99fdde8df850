package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ojcast/ojcast/internal/artifact"
	"github.com/ojcast/ojcast/internal/compression"
	"github.com/ojcast/ojcast/internal/config"
	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/logging"
	"github.com/ojcast/ojcast/internal/pool"
)

// Pass selects which stages a run executes.
const (
	PassAll   = "all"
	PassBasic = "basic"
	PassETS   = "ets"
)

// Artifact object names. They are part of the on-disk contract and shared
// with external tooling, so they never change with refactors.
const (
	ObjTrain         = "oj_train"
	ObjTest          = "oj_test"
	ObjModelSetBasic = "oj_modelset_basic"
	ObjFcastBasic    = "oj_fcast_basic"
	ObjModelSetETS   = "oj_modelset_ets"
	ObjFcastETS      = "oj_fcast_ets"
)

// PassResult is one pass's output across all partitions, ordered like the
// dataset's partitions.
type PassResult struct {
	Sets   []*forecast.ModelSet
	Tables []*forecast.Table
}

// Result is everything a completed run produced.
type Result struct {
	RunID   string
	Pass    string
	Dataset *dataset.Dataset
	Basic   *PassResult // nil when the run skipped the basic pass
	ETS     *PassResult // nil when the run skipped the ETS pass
	Elapsed time.Duration
}

// Runner executes passes against one dataset using one artifact store.
type Runner struct {
	cfg    *config.Config
	store  *artifact.Store
	logger *logging.Logger
}

// NewRunner validates the configuration and prepares the artifact store.
func NewRunner(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Wrap(CodeSetupFailure, "invalid configuration", err)
	}

	comp, err := compression.ByName(cfg.Artifacts.Compression)
	if err != nil {
		return nil, Wrap(CodeSetupFailure, "invalid artifact compression", err)
	}

	return &Runner{
		cfg:    cfg,
		store:  artifact.NewStore(cfg.Dataset.Root, comp),
		logger: logging.Global(),
	}, nil
}

// Store returns the runner's artifact store.
func (r *Runner) Store() *artifact.Store {
	return r.store
}

// Run executes the requested pass: load and validate the dataset, create
// the pool, fit, forecast, persist. PassAll feeds the ETS pass from the
// in-memory basic results; PassETS loads them from the basic artifact.
func (r *Runner) Run(ctx context.Context, pass string) (*Result, error) {
	switch pass {
	case PassAll, PassBasic, PassETS:
	default:
		return nil, NewError(CodeSetupFailure, fmt.Sprintf("unknown pass %q (want all, basic or ets)", pass))
	}

	start := time.Now()
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)

	p, err := pool.New(r.cfg.Pool.Workers, r.requiredModels(pass))
	if err != nil {
		return nil, Wrap(CodeSetupFailure, "worker pool creation failed", err)
	}
	defer p.Close()

	ds, err := r.loadDataset(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Pass: pass, Dataset: ds}

	var basicSets []*forecast.ModelSet
	if pass == PassAll || pass == PassBasic {
		basic, err := r.runBasicPass(ctx, p, ds)
		if err != nil {
			return nil, err
		}
		result.Basic = basic
		basicSets = basic.Sets
	}

	if pass == PassAll || pass == PassETS {
		if basicSets == nil {
			basicSets, err = r.loadBasicSets(ctx)
			if err != nil {
				return nil, err
			}
		}
		ets, err := r.runETSPass(ctx, p, ds, basicSets)
		if err != nil {
			return nil, err
		}
		result.ETS = ets
	}

	result.Elapsed = time.Since(start)
	r.logger.WithContext(ctx).Info("Run completed",
		"pass", pass,
		"partitions", len(ds.Train),
		"elapsed_ms", result.Elapsed.Milliseconds())
	return result, nil
}

// requiredModels returns the model names the pass will fit, deduplicated
// in menu order.
func (r *Runner) requiredModels(pass string) []string {
	var menus [][]string
	switch pass {
	case PassBasic:
		menus = [][]string{r.cfg.Models.Basic}
	case PassETS:
		menus = [][]string{r.cfg.Models.ETS}
	default:
		menus = [][]string{r.cfg.Models.Basic, r.cfg.Models.ETS}
	}

	seen := make(map[string]bool)
	var out []string
	for _, menu := range menus {
		for _, name := range menu {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func (r *Runner) loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	var ds dataset.Dataset
	err := r.store.Load(r.cfg.Dataset.Example, r.cfg.Dataset.File, map[string]any{
		ObjTrain: &ds.Train,
		ObjTest:  &ds.Test,
	})
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, Wrap(CodeMissingDependency,
				fmt.Sprintf("dataset artifact %s missing", r.store.Path(r.cfg.Dataset.Example, r.cfg.Dataset.File)), err)
		}
		return nil, Wrap(CodeIOFailure, "failed to load dataset artifact", err)
	}

	if err := ds.Validate(); err != nil {
		return nil, Wrap(CodeBadDataset, "dataset failed validation", err)
	}

	r.logger.WithContext(ctx).Info("Dataset loaded",
		"example", r.cfg.Dataset.Example,
		"partitions", len(ds.Train))
	return &ds, nil
}

func (r *Runner) runBasicPass(ctx context.Context, p *pool.Pool, ds *dataset.Dataset) (*PassResult, error) {
	ctx = logging.WithPass(ctx, PassBasic)
	start := time.Now()

	sets, err := FitAll(ctx, p, ds.Train, r.cfg.Models.Basic)
	if err != nil {
		return nil, err
	}

	tables := make([]*forecast.Table, len(sets))
	for i, set := range sets {
		tables[i] = ForecastSet(set, &ds.Test[i], r.cfg.Forecast.Horizon)
	}

	if err := r.store.Save(r.cfg.Dataset.Example, r.cfg.Artifacts.BasicFile, map[string]any{
		ObjModelSetBasic: sets,
		ObjFcastBasic:    tables,
	}); err != nil {
		return nil, Wrap(CodeIOFailure, "failed to save basic pass artifact", err)
	}

	r.logger.WithContext(ctx).Info("Basic pass completed",
		"partitions", len(sets),
		"menu", fmt.Sprintf("%v", r.cfg.Models.Basic),
		"elapsed_ms", time.Since(start).Milliseconds())
	return &PassResult{Sets: sets, Tables: tables}, nil
}

// loadBasicSets reads the basic pass output back for a standalone ETS run.
func (r *Runner) loadBasicSets(ctx context.Context) ([]*forecast.ModelSet, error) {
	var sets []*forecast.ModelSet
	err := r.store.Load(r.cfg.Dataset.Example, r.cfg.Artifacts.BasicFile, map[string]any{
		ObjModelSetBasic: &sets,
	})
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, Wrap(CodeMissingDependency,
				"ETS pass requires the basic pass artifact; run the basic pass first", err)
		}
		return nil, Wrap(CodeIOFailure, "failed to load basic pass artifact", err)
	}

	r.logger.WithContext(ctx).Debug("Basic model sets loaded", "partitions", len(sets))
	return sets, nil
}

func (r *Runner) runETSPass(ctx context.Context, p *pool.Pool, ds *dataset.Dataset, basicSets []*forecast.ModelSet) (*PassResult, error) {
	ctx = logging.WithPass(ctx, PassETS)
	start := time.Now()

	// Basic sets may come from an artifact written against an older
	// partition order, so match by name rather than index.
	byName := make(map[string]*forecast.ModelSet, len(basicSets))
	for _, set := range basicSets {
		byName[set.Partition] = set
	}

	sets := make([]*forecast.ModelSet, len(ds.Train))
	tables := make([]*forecast.Table, len(ds.Train))
	err := p.Map(ctx, len(ds.Train), func(ctx context.Context, i int) error {
		part := &ds.Train[i]
		ctx = logging.WithPartition(ctx, part.Name)

		basic, ok := byName[part.Name]
		if !ok {
			return NewError(CodeMissingDependency,
				fmt.Sprintf("basic model set for partition %s not found in artifact", part.Name))
		}

		imputed, err := ImputePartition(part, basic, r.cfg.Imputation.Source)
		if err != nil {
			return err
		}

		set, err := FitPartition(ctx, &imputed, r.cfg.Models.ETS)
		if err != nil {
			return err
		}
		sets[i] = set
		tables[i] = ForecastSet(set, &ds.Test[i], r.cfg.Forecast.Horizon)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.store.Save(r.cfg.Dataset.Example, r.cfg.Artifacts.ETSFile, map[string]any{
		ObjModelSetETS: sets,
		ObjFcastETS:    tables,
	}); err != nil {
		return nil, Wrap(CodeIOFailure, "failed to save ETS pass artifact", err)
	}

	r.logger.WithContext(ctx).Info("ETS pass completed",
		"partitions", len(sets),
		"imputation_source", r.cfg.Imputation.Source,
		"elapsed_ms", time.Since(start).Milliseconds())
	return &PassResult{Sets: sets, Tables: tables}, nil
}
