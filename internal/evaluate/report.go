package evaluate

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ojcast/ojcast/internal/logging"
)

// WriteText renders evaluations as aligned text tables: per-partition
// detail followed by a per-model summary for each pass.
func WriteText(w io.Writer, evals []*Evaluation) error {
	for _, eval := range evals {
		if _, err := fmt.Fprintf(w, "=== Forecast Accuracy: %s ===\n", eval.Pass); err != nil {
			return err
		}

		for _, pa := range eval.Partitions {
			fmt.Fprintf(w, "\nPartition: %s\n", pa.Partition)
			fmt.Fprintf(w, "  %-6s %-14s %-8s %12s %12s %12s %9s %9s %5s\n",
				"Store", "Brand", "Model", "ME", "RMSE", "MAE", "MPE", "MAPE", "N")
			for _, g := range pa.Groups {
				fmt.Fprintf(w, "  %-6d %-14s %-8s %12.2f %12.2f %12.2f %8.2f%% %8.2f%% %5d\n",
					g.Store, g.Brand, g.Model, g.ME, g.RMSE, g.MAE, g.MPE, g.MAPE, g.N)
			}
		}

		fmt.Fprintf(w, "\nModel Summary (mean across groups):\n")
		fmt.Fprintf(w, "  %-8s %12s %12s %12s %9s %9s %7s\n",
			"Model", "ME", "RMSE", "MAE", "MPE", "MAPE", "Groups")
		for _, s := range eval.Summary {
			fmt.Fprintf(w, "  %-8s %12.2f %12.2f %12.2f %8.2f%% %8.2f%% %7d\n",
				s.Model, s.ME, s.RMSE, s.MAE, s.MPE, s.MAPE, s.Groups)
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX writes evaluations to a workbook, one sheet per pass. Each
// sheet carries the detail rows followed by the model summary.
func WriteXLSX(path string, evals []*Evaluation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, eval := range evals {
		sheet := eval.Pass
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		row := 1
		setRow(f, sheet, row, []any{"Partition", "Store", "Brand", "Model", "ME", "RMSE", "MAE", "MPE", "MAPE", "N"})
		row++
		for _, pa := range eval.Partitions {
			for _, g := range pa.Groups {
				setRow(f, sheet, row, []any{pa.Partition, g.Store, g.Brand, g.Model, g.ME, g.RMSE, g.MAE, g.MPE, g.MAPE, g.N})
				row++
			}
		}

		row++
		setRow(f, sheet, row, []any{"Summary", "Model", "ME", "RMSE", "MAE", "MPE", "MAPE", "Groups"})
		row++
		for _, s := range eval.Summary {
			setRow(f, sheet, row, []any{"", s.Model, s.ME, s.RMSE, s.MAE, s.MPE, s.MAPE, s.Groups})
			row++
		}
	}

	// Keep the default sheet only when there is nothing else to show.
	if len(evals) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	logging.Global().Info("Accuracy workbook written", "path", path, "sheets", len(evals))
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, value)
	}
}
