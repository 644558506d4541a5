package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders a Table as a landscape A4 document with the title centered
// above an evenly divided grid.
type PDF struct{}

// NewPDF constructs a PDF renderer.
func NewPDF() *PDF {
	return &PDF{}
}

// landscape A4 printable width with 10mm margins
const pdfTableWidth = 277.0

// Render produces the encoded document.
func (r *PDF) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("pdf render: no columns")
	}

	doc := gofpdf.New("L", "mm", "A4", "")
	doc.SetMargins(10, 12, 10)
	doc.AddPage()

	if table.Title != "" {
		doc.SetFont("Arial", "B", 13)
		doc.CellFormat(0, 9, table.Title, "", 1, "C", false, 0, "")
		doc.Ln(3)
	}

	colWidth := pdfTableWidth / float64(len(table.Columns))

	doc.SetFont("Arial", "B", 9)
	doc.SetFillColor(230, 230, 230)
	for _, col := range table.Columns {
		doc.CellFormat(colWidth, 7, col, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for i := range table.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			doc.CellFormat(colWidth, 6, cell, "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension without the dot.
func (r *PDF) Extension() string { return "pdf" }

// ContentType returns the MIME type served on download.
func (r *PDF) ContentType() string { return "application/pdf" }
