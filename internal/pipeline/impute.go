package pipeline

import (
	"fmt"
	"sort"

	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/logging"
)

// ImputePartition returns a copy of part with every missing observation
// replaced by the source model's in-sample fitted value at the same grid
// position. The basic-pass model set supplies the fitted series; a group
// with gaps but no source model is a missing dependency.
func ImputePartition(part *dataset.Partition, basic *forecast.ModelSet, source string) (dataset.Partition, error) {
	out := part.Clone()

	// Fitted arrays are aligned to each group's week-sorted grid, so map
	// week -> grid index per group before touching any row.
	weekIndex := make(map[dataset.GroupKey]map[int]int)
	for _, key := range out.Groups() {
		var weeks []int
		for _, r := range out.Rows {
			if r.Key() == key {
				weeks = append(weeks, r.Week)
			}
		}
		sort.Ints(weeks)
		idx := make(map[int]int, len(weeks))
		for i, w := range weeks {
			idx[w] = i
		}
		weekIndex[key] = idx
	}

	fittedCache := make(map[dataset.GroupKey][]float64)
	imputed := 0

	for i := range out.Rows {
		r := &out.Rows[i]
		if !r.Missing {
			continue
		}

		key := r.Key()
		fitted, ok := fittedCache[key]
		if !ok {
			model, found := basic.ModelFor(key.Store, key.Brand, source)
			if !found {
				return dataset.Partition{}, NewError(CodeMissingDependency,
					fmt.Sprintf("partition %s: no %s model for group %s in basic model set", part.Name, source, key))
			}
			fitted = model.Fitted()
			fittedCache[key] = fitted
		}

		gridIdx, ok := weekIndex[key][r.Week]
		if !ok || gridIdx >= len(fitted) {
			return dataset.Partition{}, NewErrorWithDetails(CodeMissingDependency,
				fmt.Sprintf("partition %s: %s fitted values do not cover week %d of group %s", part.Name, source, r.Week, key),
				map[string]interface{}{"fitted_len": len(fitted), "grid_index": gridIdx})
		}

		r.Logmove = fitted[gridIdx]
		r.Missing = false
		imputed++
	}

	logging.Debug("Partition imputed",
		"partition", part.Name,
		"source", source,
		"filled", imputed)
	return out, nil
}
