package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ojcast/ojcast/internal/artifact"
	"github.com/ojcast/ojcast/internal/dataset"
	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/pipeline"
)

func main() {
	// Command line flags
	root := flag.String("root", "./data", "Artifact store root directory")
	example := flag.String("example", "grocery_sales", "Dataset identifier")
	file := flag.String("file", "data.Rdata", "Artifact file name")
	object := flag.String("object", "", "Object to export; empty lists the artifact's objects")
	output := flag.String("output", "./csv", "Output CSV directory")

	flag.Parse()

	// The store reads the codec from the artifact header, so no
	// compression flag is needed here.
	store := artifact.NewStore(*root, nil)

	if *object == "" {
		names, err := store.Objects(*example, *file)
		if err != nil {
			log.Fatalf("Error listing objects: %v\n", err)
		}
		fmt.Printf("Objects in %s:\n", store.Path(*example, *file))
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	rows, header, err := exportRows(store, *example, *file, *object)
	if err != nil {
		log.Fatalf("Error reading object: %v\n", err)
	}

	fmt.Printf("Found %d rows\n", len(rows))

	// Ensure output directory exists
	if err := os.MkdirAll(*output, 0o755); err != nil {
		log.Fatalf("Error creating output directory: %v\n", err)
	}

	outputFile := filepath.Join(*output, fmt.Sprintf("%s_%s.csv", *example, *object))
	if err := writeCSV(outputFile, header, rows); err != nil {
		log.Fatalf("Error exporting to CSV: %v\n", err)
	}

	fmt.Printf("Successfully exported to: %s\n", outputFile)
}

// exportRows flattens the named object into CSV records. Partitions and
// forecast tables are supported; model sets hold fitted state with no
// tabular shape.
func exportRows(store *artifact.Store, example, file, object string) ([][]string, []string, error) {
	switch object {
	case pipeline.ObjTrain, pipeline.ObjTest:
		var parts []dataset.Partition
		err := store.Load(example, file, map[string]any{object: &parts})
		if err != nil {
			return nil, nil, err
		}
		return partitionRows(parts), []string{"partition", "store", "brand", "week", "logmove", "price", "deal", "feat", "missing"}, nil

	case pipeline.ObjFcastBasic, pipeline.ObjFcastETS:
		var tables []*forecast.Table
		err := store.Load(example, file, map[string]any{object: &tables})
		if err != nil {
			return nil, nil, err
		}
		return tableRows(tables), []string{"partition", "store", "brand", "model", "week", "value", "lo95", "hi95"}, nil

	case pipeline.ObjModelSetBasic, pipeline.ObjModelSetETS:
		return nil, nil, fmt.Errorf("object %q holds fitted models; export a partition or forecast table instead", object)

	default:
		return nil, nil, fmt.Errorf("unknown object %q (try an empty -object to list)", object)
	}
}

func partitionRows(parts []dataset.Partition) [][]string {
	var out [][]string
	for _, p := range parts {
		for _, r := range p.Rows {
			out = append(out, []string{
				p.Name,
				strconv.Itoa(r.Store),
				r.Brand,
				strconv.Itoa(r.Week),
				formatFloat(r.Logmove),
				formatFloat(r.Price),
				strconv.FormatBool(r.Deal),
				strconv.FormatBool(r.Feat),
				strconv.FormatBool(r.Missing),
			})
		}
	}
	return out
}

func tableRows(tables []*forecast.Table) [][]string {
	var out [][]string
	for _, t := range tables {
		for _, r := range t.Rows {
			out = append(out, []string{
				t.Partition,
				strconv.Itoa(r.Store),
				r.Brand,
				r.Model,
				strconv.Itoa(r.Week),
				formatFloat(r.Value),
				formatFloat(r.Lo95),
				formatFloat(r.Hi95),
			})
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 6, 64), "0"), ".")
}

func writeCSV(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
