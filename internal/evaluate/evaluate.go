// Package evaluate scores forecast tables against held-out test partitions
// and renders the results as console and workbook reports.
package evaluate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/logging"
)

// GroupAccuracy holds accuracy metrics for one (store, brand, model)
// combination. Metrics are computed on the sales scale, after undoing the
// log transform on both forecasts and actuals.
type GroupAccuracy struct {
	Store int     `json:"store"`
	Brand string  `json:"brand"`
	Model string  `json:"model"`
	ME    float64 `json:"me"`   // Mean Error
	RMSE  float64 `json:"rmse"` // Root Mean Squared Error
	MAE   float64 `json:"mae"`  // Mean Absolute Error
	MPE   float64 `json:"mpe"`  // Mean Percentage Error
	MAPE  float64 `json:"mape"` // Mean Absolute Percentage Error
	N     int     `json:"n"`    // Matched test observations
}

// PartitionAccuracy is one partition's per-group detail.
type PartitionAccuracy struct {
	Partition string          `json:"partition"`
	Groups    []GroupAccuracy `json:"groups"`
}

// ModelSummary averages each metric across all scored groups of one model.
type ModelSummary struct {
	Model  string  `json:"model"`
	ME     float64 `json:"me"`
	RMSE   float64 `json:"rmse"`
	MAE    float64 `json:"mae"`
	MPE    float64 `json:"mpe"`
	MAPE   float64 `json:"mape"`
	Groups int     `json:"groups"`
}

// Evaluation is the scored output of one pass.
type Evaluation struct {
	Pass       string              `json:"pass"`
	Partitions []PartitionAccuracy `json:"partitions"`
	Summary    []ModelSummary      `json:"summary"`
}

type pairKey struct {
	key   dataset.GroupKey
	model string
}

type pairs struct {
	actual    []float64
	predicted []float64
}

// EvaluatePass scores every forecast table of a pass against its test
// partition, matched by partition name. Test rows flagged missing are left
// out of the metric computation.
func EvaluatePass(pass string, tables []*forecast.Table, test []dataset.Partition) (*Evaluation, error) {
	testByName := make(map[string]*dataset.Partition, len(test))
	for i := range test {
		testByName[test[i].Name] = &test[i]
	}

	eval := &Evaluation{Pass: pass}
	for _, table := range tables {
		testPart, ok := testByName[table.Partition]
		if !ok {
			return nil, fmt.Errorf("no test partition named %q for forecast table", table.Partition)
		}

		pa, err := evaluateTable(table, testPart)
		if err != nil {
			return nil, err
		}
		eval.Partitions = append(eval.Partitions, pa)
	}

	eval.Summary = summarize(eval.Partitions)

	logging.Global().Debug("Pass evaluated",
		"pass", pass,
		"partitions", len(eval.Partitions),
		"models", len(eval.Summary))
	return eval, nil
}

func evaluateTable(table *forecast.Table, testPart *dataset.Partition) (PartitionAccuracy, error) {
	// Actual sales per (group, week), skipping rows without an observation.
	actuals := make(map[dataset.GroupKey]map[int]float64)
	for _, row := range testPart.Rows {
		if row.Missing {
			continue
		}
		key := row.Key()
		if actuals[key] == nil {
			actuals[key] = make(map[int]float64)
		}
		actuals[key][row.Week] = math.Exp(row.Logmove)
	}

	matched := make(map[pairKey]*pairs)
	for _, row := range table.Rows {
		key := dataset.GroupKey{Store: row.Store, Brand: row.Brand}
		weeks, ok := actuals[key]
		if !ok {
			return PartitionAccuracy{}, fmt.Errorf("partition %s: forecast for %s has no test observations", table.Partition, key)
		}
		actual, ok := weeks[row.Week]
		if !ok {
			continue
		}

		pk := pairKey{key: key, model: row.Model}
		p := matched[pk]
		if p == nil {
			p = &pairs{}
			matched[pk] = p
		}
		p.actual = append(p.actual, actual)
		p.predicted = append(p.predicted, math.Exp(row.Value))
	}

	keys := make([]pairKey, 0, len(matched))
	for pk := range matched {
		keys = append(keys, pk)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].key != keys[j].key {
			return keys[i].key.Less(keys[j].key)
		}
		return keys[i].model < keys[j].model
	})

	pa := PartitionAccuracy{Partition: table.Partition}
	for _, pk := range keys {
		p := matched[pk]
		acc := GroupAccuracy{
			Store: pk.key.Store,
			Brand: pk.key.Brand,
			Model: pk.model,
			N:     len(p.actual),
		}
		acc.ME, acc.RMSE, acc.MAE, acc.MPE, acc.MAPE = computeMetrics(p.actual, p.predicted)
		pa.Groups = append(pa.Groups, acc)
	}
	return pa, nil
}

// computeMetrics derives the standard error metrics from matched pairs.
// Actuals are exponentiated log values, strictly positive, so the
// percentage metrics cover every pair.
func computeMetrics(actual, predicted []float64) (me, rmse, mae, mpe, mape float64) {
	return forecast.CalculateME(actual, predicted),
		forecast.CalculateRMSE(actual, predicted),
		forecast.CalculateMAE(actual, predicted),
		forecast.CalculateMPE(actual, predicted),
		forecast.CalculateMAPE(actual, predicted)
}

func summarize(partitions []PartitionAccuracy) []ModelSummary {
	type metricLists struct {
		me, rmse, mae, mpe, mape []float64
	}
	byModel := make(map[string]*metricLists)
	for _, pa := range partitions {
		for _, g := range pa.Groups {
			m := byModel[g.Model]
			if m == nil {
				m = &metricLists{}
				byModel[g.Model] = m
			}
			m.me = append(m.me, g.ME)
			m.rmse = append(m.rmse, g.RMSE)
			m.mae = append(m.mae, g.MAE)
			m.mpe = append(m.mpe, g.MPE)
			m.mape = append(m.mape, g.MAPE)
		}
	}

	names := make([]string, 0, len(byModel))
	for name := range byModel {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ModelSummary, 0, len(names))
	for _, name := range names {
		m := byModel[name]
		out = append(out, ModelSummary{
			Model:  name,
			ME:     stat.Mean(m.me, nil),
			RMSE:   stat.Mean(m.rmse, nil),
			MAE:    stat.Mean(m.mae, nil),
			MPE:    stat.Mean(m.mpe, nil),
			MAPE:   stat.Mean(m.mape, nil),
			Groups: len(m.me),
		})
	}
	return out
}
