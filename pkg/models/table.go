package models

// RawTable is the untyped output of a format extractor: an ordered header
// row plus data rows as raw string cells. Rows may be ragged since PDF
// extraction is best-effort per page and pages can disagree on column
// counts.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table holds no data rows.
func (t *RawTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Cell returns the value at row i, column j, or "" when the row is too
// short to have that column.
func (t *RawTable) Cell(i, j int) string {
	if j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}
