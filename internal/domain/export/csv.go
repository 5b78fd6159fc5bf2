// Package export implements the stock snapshot export job: query the
// database, write a CSV file, upload it, and append an audit record.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteCSV writes the snapshot to a timestamped file under dir and
// returns the file path. Fixed-width CHAR columns arrive right-padded;
// padding is stripped before writing.
func WriteCSV(dir string, columns []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("stock_export_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(columns) > 0 {
		if err := w.Write(normalizeRecord(columns)); err != nil {
			return "", fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(normalizeRecord(row)); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv file: %w", err)
	}

	return path, nil
}

func normalizeRecord(record []string) []string {
	out := make([]string, len(record))
	for i, v := range record {
		out[i] = strings.TrimRight(v, " \t")
	}
	return out
}
