package pipeline

import (
	"sort"

	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/logging"
)

// ForecastSet turns one partition's fitted models into a forecast table.
// Each group's horizon is its week count in the test partition, optionally
// capped by a fixed horizon (0 means full). Groups absent from the test
// partition produce no rows, so forecast keys are always a subset of test
// keys.
func ForecastSet(set *forecast.ModelSet, testPart *dataset.Partition, horizon int) *forecast.Table {
	table := &forecast.Table{Partition: set.Partition}

	for i := range set.Groups {
		g := &set.Groups[i]
		key := dataset.GroupKey{Store: g.Store, Brand: g.Brand}
		if !testPart.HasGroup(key) {
			logging.Debug("Group absent from test partition, skipping forecast",
				"partition", set.Partition,
				"group", key.String())
			continue
		}

		weeks := testPart.Series(key).Weeks
		h := len(weeks)
		if horizon > 0 && horizon < h {
			h = horizon
		}

		names := make([]string, 0, len(g.Models))
		for name := range g.Models {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for k, pt := range g.Models[name].Forecast(h) {
				table.Rows = append(table.Rows, forecast.TableRow{
					Store: g.Store,
					Brand: g.Brand,
					Model: name,
					Week:  weeks[k],
					Value: pt.Value,
					Lo95:  pt.Lo95,
					Hi95:  pt.Hi95,
				})
			}
		}
	}

	return table
}
