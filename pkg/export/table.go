package export

// Table is the tabular content of a generated report.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Renderer turns a Table into a downloadable document.
type Renderer interface {
	Render(table Table) ([]byte, error)
	Extension() string
	ContentType() string
}
