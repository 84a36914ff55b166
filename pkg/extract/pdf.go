package extract

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/statement-tools/bankstage/pkg/models"
)

// Layout tolerances for reconstructing table cells from positioned text.
// Text items on the same baseline within lineTolerance points form one row;
// a horizontal gap wider than cellGapEm times the font size starts a new
// cell, a smaller gap beyond wordGapEm becomes a space.
const (
	lineTolerance = 2.0
	wordGapEm     = 0.3
	cellGapEm     = 1.5
)

// extractPDF runs best-effort table extraction over every page and appends
// all recovered rows into one sequence. The first row of the first page
// that yields anything becomes the header row for the whole document.
// Pages with no recoverable table contribute nothing, and a document with
// no rows at all produces an empty table rather than an error.
func (e *Extractor) extractPDF(r io.Reader) (*models.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error opening pdf: %w", err)
	}

	pages := make([][][]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows := pageTableRows(page.Content().Text)
		e.logger.Debug("pdf page extracted", "page", i, "rows", len(rows))
		pages = append(pages, rows)
	}

	return tableFromPages(pages), nil
}

// tableFromPages stitches per-page rows into a single table. Rows keep
// document order, and the header ends up being the first row of the first
// page that yielded anything.
func tableFromPages(pages [][][]string) *models.RawTable {
	var records [][]string
	for _, rows := range pages {
		records = append(records, rows...)
	}
	return tableFromRecords(records)
}

// pageTableRows clusters positioned text into table rows. Lines that split
// into fewer than two cells are treated as prose (titles, footers) and
// skipped.
func pageTableRows(texts []pdf.Text) [][]string {
	if len(texts) == 0 {
		return nil
	}

	lines := clusterLines(texts)

	var rows [][]string
	for _, line := range lines {
		cells := splitCells(line)
		if len(cells) < 2 {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

// clusterLines groups text items by baseline, top of page first.
func clusterLines(texts []pdf.Text) [][]pdf.Text {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		// PDF Y origin is the bottom of the page
		if diff := sorted[i].Y - sorted[j].Y; diff > lineTolerance || diff < -lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]pdf.Text
	for _, t := range sorted {
		if strings.TrimSpace(t.S) == "" && len(lines) == 0 {
			continue
		}
		if n := len(lines); n > 0 {
			last := lines[n-1]
			if last[0].Y-t.Y <= lineTolerance {
				lines[n-1] = append(last, t)
				continue
			}
		}
		lines = append(lines, []pdf.Text{t})
	}
	return lines
}

// splitCells merges a line's text items left to right, breaking into a new
// cell whenever the horizontal gap is wide enough to read as a column
// boundary.
func splitCells(line []pdf.Text) []string {
	var cells []string
	var cell strings.Builder
	var prevEnd float64

	for i, t := range line {
		if i > 0 {
			gap := t.X - prevEnd
			em := t.FontSize
			if em <= 0 {
				em = 10
			}
			switch {
			case gap > cellGapEm*em:
				cells = appendCell(cells, &cell)
			case gap > wordGapEm*em:
				cell.WriteByte(' ')
			}
		}
		cell.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return appendCell(cells, &cell)
}

func appendCell(cells []string, cell *strings.Builder) []string {
	s := strings.TrimSpace(cell.String())
	cell.Reset()
	if s == "" {
		return cells
	}
	return append(cells, s)
}
