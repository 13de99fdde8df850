package evaluate

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
)

// tableFromSales builds a one-group forecast table with the given predicted
// sales, stored on the log scale as the pipeline produces them.
func tableFromSales(partition string, store int, brand, model string, weeks []int, sales []float64) *forecast.Table {
	table := &forecast.Table{Partition: partition}
	for i, w := range weeks {
		table.Rows = append(table.Rows, forecast.TableRow{
			Store: store,
			Brand: brand,
			Model: model,
			Week:  w,
			Value: math.Log(sales[i]),
		})
	}
	return table
}

func testPartition(name string, store int, brand string, weeks []int, sales []float64, missing map[int]bool) dataset.Partition {
	p := dataset.Partition{Name: name}
	for i, w := range weeks {
		p.Rows = append(p.Rows, dataset.Row{
			Store:   store,
			Brand:   brand,
			Week:    w,
			Logmove: math.Log(sales[i]),
			Missing: missing[w],
		})
	}
	return p
}

func TestEvaluatePassKnownValues(t *testing.T) {
	weeks := []int{100, 101}
	table := tableFromSales("partition_1", 2, "tropicana", "naive", weeks, []float64{100, 200})
	test := []dataset.Partition{
		testPartition("partition_1", 2, "tropicana", weeks, []float64{110, 190}, nil),
	}

	eval, err := EvaluatePass("basic", []*forecast.Table{table}, test)
	require.NoError(t, err)
	require.Len(t, eval.Partitions, 1)
	require.Len(t, eval.Partitions[0].Groups, 1)

	// Errors on the sales scale: 110-100 = +10, 190-200 = -10.
	g := eval.Partitions[0].Groups[0]
	assert.Equal(t, 2, g.Store)
	assert.Equal(t, "tropicana", g.Brand)
	assert.Equal(t, "naive", g.Model)
	assert.Equal(t, 2, g.N)
	assert.InDelta(t, 0.0, g.ME, 1e-9)
	assert.InDelta(t, 10.0, g.RMSE, 1e-9)
	assert.InDelta(t, 10.0, g.MAE, 1e-9)
	assert.InDelta(t, (100.0*10/110+100.0*-10/190)/2, g.MPE, 1e-9)
	assert.InDelta(t, (100.0*10/110+100.0*10/190)/2, g.MAPE, 1e-9)

	require.Len(t, eval.Summary, 1)
	s := eval.Summary[0]
	assert.Equal(t, "naive", s.Model)
	assert.Equal(t, 1, s.Groups)
	assert.InDelta(t, g.MAPE, s.MAPE, 1e-9)
}

func TestEvaluatePassSkipsMissingTestObservations(t *testing.T) {
	weeks := []int{100, 101, 102}
	table := tableFromSales("partition_1", 2, "mean", "mean", weeks, []float64{100, 100, 100})
	test := []dataset.Partition{
		testPartition("partition_1", 2, "mean", weeks, []float64{120, 999, 80}, map[int]bool{101: true}),
	}

	eval, err := EvaluatePass("basic", []*forecast.Table{table}, test)
	require.NoError(t, err)

	g := eval.Partitions[0].Groups[0]
	assert.Equal(t, 2, g.N)
	// Only weeks 100 and 102 count: errors +20 and -20.
	assert.InDelta(t, 0.0, g.ME, 1e-9)
	assert.InDelta(t, 20.0, g.MAE, 1e-9)
}

func TestEvaluatePassSummaryAveragesGroups(t *testing.T) {
	weeks := []int{100}
	t1 := tableFromSales("partition_1", 2, "tropicana", "naive", weeks, []float64{100})
	t1.Rows = append(t1.Rows, tableFromSales("partition_1", 2, "dominicks", "naive", weeks, []float64{100}).Rows...)
	test := []dataset.Partition{func() dataset.Partition {
		p := testPartition("partition_1", 2, "tropicana", weeks, []float64{110}, nil)
		p.Rows = append(p.Rows, testPartition("partition_1", 2, "dominicks", weeks, []float64{130}, nil).Rows...)
		return p
	}()}

	eval, err := EvaluatePass("basic", []*forecast.Table{t1}, test)
	require.NoError(t, err)
	require.Len(t, eval.Partitions[0].Groups, 2)

	// Group MAEs are 30 (dominicks) and 10 (tropicana); the summary is their mean.
	require.Len(t, eval.Summary, 1)
	assert.Equal(t, 2, eval.Summary[0].Groups)
	assert.InDelta(t, 20.0, eval.Summary[0].MAE, 1e-9)
}

func TestEvaluatePassGroupsSorted(t *testing.T) {
	weeks := []int{100}
	table := &forecast.Table{Partition: "partition_1"}
	for _, g := range []struct {
		store int
		brand string
		model string
	}{
		{9, "tropicana", "naive"},
		{2, "tropicana", "naive"},
		{2, "tropicana", "mean"},
		{2, "dominicks", "naive"},
	} {
		table.Rows = append(table.Rows, tableFromSales("partition_1", g.store, g.brand, g.model, weeks, []float64{100}).Rows...)
	}

	p := testPartition("partition_1", 2, "tropicana", weeks, []float64{100}, nil)
	p.Rows = append(p.Rows, testPartition("partition_1", 2, "dominicks", weeks, []float64{100}, nil).Rows...)
	p.Rows = append(p.Rows, testPartition("partition_1", 9, "tropicana", weeks, []float64{100}, nil).Rows...)

	eval, err := EvaluatePass("basic", []*forecast.Table{table}, []dataset.Partition{p})
	require.NoError(t, err)

	groups := eval.Partitions[0].Groups
	require.Len(t, groups, 4)
	assert.Equal(t, []string{"dominicks", "tropicana", "tropicana", "tropicana"},
		[]string{groups[0].Brand, groups[1].Brand, groups[2].Brand, groups[3].Brand})
	assert.Equal(t, "mean", groups[1].Model)
	assert.Equal(t, "naive", groups[2].Model)
	assert.Equal(t, 9, groups[3].Store)
}

func TestEvaluatePassMissingTestPartition(t *testing.T) {
	table := tableFromSales("partition_9", 2, "tropicana", "naive", []int{100}, []float64{100})

	_, err := EvaluatePass("basic", []*forecast.Table{table}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partition_9")
}

func TestEvaluatePassForecastWithoutAnyObservations(t *testing.T) {
	weeks := []int{100}
	table := tableFromSales("partition_1", 2, "tropicana", "naive", weeks, []float64{100})
	test := []dataset.Partition{
		testPartition("partition_1", 2, "tropicana", weeks, []float64{100}, map[int]bool{100: true}),
	}

	_, err := EvaluatePass("basic", []*forecast.Table{table}, test)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no test observations")
}

func TestWriteText(t *testing.T) {
	weeks := []int{100, 101}
	table := tableFromSales("partition_1", 2, "tropicana", "naive", weeks, []float64{100, 200})
	test := []dataset.Partition{
		testPartition("partition_1", 2, "tropicana", weeks, []float64{110, 190}, nil),
	}
	eval, err := EvaluatePass("basic", []*forecast.Table{table}, test)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, []*Evaluation{eval}))

	out := buf.String()
	assert.Contains(t, out, "=== Forecast Accuracy: basic ===")
	assert.Contains(t, out, "Partition: partition_1")
	assert.Contains(t, out, "tropicana")
	assert.Contains(t, out, "Model Summary (mean across groups):")
	assert.Contains(t, out, "naive")
}

func TestWriteXLSX(t *testing.T) {
	weeks := []int{100, 101}
	table := tableFromSales("partition_1", 2, "tropicana", "naive", weeks, []float64{100, 200})
	test := []dataset.Partition{
		testPartition("partition_1", 2, "tropicana", weeks, []float64{110, 190}, nil),
	}
	basic, err := EvaluatePass("basic", []*forecast.Table{table}, test)
	require.NoError(t, err)
	ets, err := EvaluatePass("ets", []*forecast.Table{table}, test)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, []*Evaluation{basic, ets}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"basic", "ets"}, f.GetSheetList())

	rows, err := f.GetRows("basic")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Partition", rows[0][0])
	assert.Equal(t, "Store", rows[0][1])

	// Detail row follows the header.
	require.Greater(t, len(rows), 1)
	assert.Equal(t, "partition_1", rows[1][0])
	assert.Equal(t, "tropicana", rows[1][2])
}
