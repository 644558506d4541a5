package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV renders a Table as RFC 4180 CSV. The title is omitted; CSV consumers
// want a clean header row.
type CSV struct{}

// NewCSV constructs a CSV renderer.
func NewCSV() *CSV {
	return &CSV{}
}

// Render produces the encoded document.
func (r *CSV) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("csv render: no columns")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Columns))
		copy(record, row)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension without the dot.
func (r *CSV) Extension() string { return "csv" }

// ContentType returns the MIME type served on download.
func (r *CSV) ContentType() string { return "text/csv" }
