package pipeline

import (
	"context"
	"fmt"

	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/logging"
	"github.com/ojcast/ojcast/internal/pool"
)

// FitPartition fits every menu model to every group of one partition.
// Groups fit in store/brand order and the first failure aborts the whole
// partition: the returned set covers group x menu completely or not at all.
func FitPartition(ctx context.Context, part *dataset.Partition, menu []string) (*forecast.ModelSet, error) {
	set := &forecast.ModelSet{Partition: part.Name}
	keys := part.Groups()

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series := part.Series(key)
		models := make(forecast.ModelMap, len(menu))
		for _, name := range menu {
			fitter, err := forecast.GetFitter(name)
			if err != nil {
				return nil, Wrap(CodeSetupFailure,
					fmt.Sprintf("partition %s requested an unavailable model", part.Name), err)
			}

			model, err := fitter.Fit(series.Values)
			if err != nil {
				return nil, Wrap(CodeFitFailure,
					fmt.Sprintf("fit %s failed for group %s in partition %s", name, key, part.Name), err)
			}
			models[name] = model
		}

		set.Groups = append(set.Groups, forecast.GroupModels{
			Store:  key.Store,
			Brand:  key.Brand,
			Models: models,
		})
	}

	logging.DebugCtx(ctx, "Partition fitted",
		"partition", part.Name,
		"groups", len(keys),
		"menu_size", len(menu))
	return set, nil
}

// FitAll fits the menu to every partition through the pool. Results keep
// the input partition order; the first failing partition cancels the rest
// and its error is returned.
func FitAll(ctx context.Context, p *pool.Pool, parts []dataset.Partition, menu []string) ([]*forecast.ModelSet, error) {
	sets := make([]*forecast.ModelSet, len(parts))
	err := p.Map(ctx, len(parts), func(ctx context.Context, i int) error {
		ctx = logging.WithPartition(ctx, parts[i].Name)
		set, err := FitPartition(ctx, &parts[i], menu)
		if err != nil {
			return err
		}
		sets[i] = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}
