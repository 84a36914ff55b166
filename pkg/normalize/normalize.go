// Package normalize maps variant bank statement layouts onto the canonical
// transaction schema and coerces cells into dates and decimal amounts.
package normalize

import (
	"strings"

	"github.com/statement-tools/bankstage/pkg/models"
)

// canonicalMap translates known header variants, already lower-cased and
// trimmed, to canonical column names. Headers it does not recognize pass
// through verbatim; nothing is ever dropped on name alone.
var canonicalMap = map[string]string{
	"date":        models.ColTransactionDate,
	"txn date":    models.ColTransactionDate,
	"value date":  models.ColValueDate,
	"particulars": models.ColRemarks,
	"narrative":   models.ColRemarks,
	"description": models.ColRemarks,
	"withdrawal":  models.ColDebit,
	"dr":          models.ColDebit,
	"deposit":     models.ColCredit,
	"cr":          models.ColCredit,
	"bal":         models.ColBalance,
}

// CanonicalName lower-cases and trims a raw header and maps it through the
// synonym table. Unrecognized headers come back normalized but unmapped.
func CanonicalName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := canonicalMap[name]; ok {
		return canonical
	}
	return name
}

// NormalizeHeaders rewrites the table's header row through CanonicalName.
// Applying it twice is a no-op.
func NormalizeHeaders(table *models.RawTable) *models.RawTable {
	columns := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = CanonicalName(c)
	}
	return &models.RawTable{
		Columns: columns,
		Rows:    table.Rows,
	}
}

// DropEmptyRows removes rows where every cell is empty or whitespace. A row
// with a single populated cell survives. Row order is preserved.
func DropEmptyRows(table *models.RawTable) *models.RawTable {
	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if !rowEmpty(row) {
			rows = append(rows, row)
		}
	}
	return &models.RawTable{
		Columns: table.Columns,
		Rows:    rows,
	}
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
