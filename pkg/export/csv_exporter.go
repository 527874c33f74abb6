package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a weekly grid into CSV bytes, one row per period
// with the period label in the first column.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the grid.
func (e *CSVExporter) Render(grid WeekGrid) ([]byte, error) {
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		return nil, fmt.Errorf("csv export requires a non-empty grid")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{"Period"}, grid.Days...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for p, label := range grid.Periods {
		record := make([]string, 0, len(grid.Days)+1)
		record = append(record, label)
		record = append(record, grid.Cells[p]...)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
