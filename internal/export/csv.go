package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

type csvWriter struct{}

func (csvWriter) Format() string { return "csv" }

// Write creates <entity>.csv per entity with a header row in declaration
// order.
func (csvWriter) Write(ctx context.Context, dir string, sys *seeder.GeneratedSystem) ([]string, error) {
	var files []string
	for _, entity := range sys.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entity + ".csv"
		if err := writeCSV(filepath.Join(dir, name), sys.Columns(entity), sys.Entities[entity]); err != nil {
			return nil, fmt.Errorf("failed to write CSV for %s: %w", entity, err)
		}
		files = append(files, name)
	}
	return files, nil
}

func writeCSV(path string, columns []string, rows []seeder.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatText(row[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
