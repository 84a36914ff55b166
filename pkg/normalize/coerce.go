package normalize

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/statement-tools/bankstage/pkg/models"
)

// dateLayouts are tried in order until one parses. Day-first layouts come
// before month-first since the statements this was built for use them.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// amountReplacer strips thousands separators and credit/debit markers
// before decimal parsing.
var amountReplacer = strings.NewReplacer(",", "", "Cr", "", "Dr", "", "CR", "", "DR", "", "cr", "", "dr", "")

// Coercer turns normalized raw tables into typed canonical tables.
type Coercer struct {
	logger *log.Logger
}

func NewCoercer(logger *log.Logger) *Coercer {
	return &Coercer{
		logger: logger,
	}
}

// Coerce types the canonical columns of an already header-normalized table.
// Amount cells that fail to parse become zero, a deliberate default that
// collapses "missing" and "unparseable" rather than failing the row. Rows
// whose transaction_date cannot be parsed are dropped; everything that
// survives has a usable date. Row order is preserved.
func (c *Coercer) Coerce(table *models.RawTable) *models.Table {
	out := &models.Table{
		Columns: table.Columns,
	}
	if table.Empty() {
		return out
	}

	for i := range table.Rows {
		tx := models.Transaction{}
		ok := false

		for j, col := range table.Columns {
			cell := strings.TrimSpace(table.Cell(i, j))

			switch col {
			case models.ColTransactionDate:
				if d, err := parseDate(cell); err == nil {
					tx.Date = d
					ok = true
				} else if cell != "" {
					c.logger.Debug("unparseable transaction date, dropping row", "row", i, "value", cell)
				}
			case models.ColValueDate:
				if d, err := parseDate(cell); err == nil {
					tx.ValueDate = &d
				}
			case models.ColRemarks:
				tx.Remarks = cell
			case models.ColDebit:
				tx.Debit = c.parseAmount(cell, i, col)
			case models.ColCredit:
				tx.Credit = c.parseAmount(cell, i, col)
			case models.ColBalance:
				tx.Balance = c.parseAmount(cell, i, col)
			default:
				if tx.Extra == nil {
					tx.Extra = make(map[string]string)
				}
				tx.Extra[col] = cell
			}
		}

		if !ok {
			continue
		}
		out.Rows = append(out.Rows, tx)
	}

	c.logger.Debug("coercion complete", "in", len(table.Rows), "out", len(out.Rows))
	return out
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var d time.Time
		if d, err = time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, err
}

// parseAmount strips locale markers and parses a decimal; anything still
// unparseable becomes zero.
func (c *Coercer) parseAmount(s string, row int, col string) decimal.Decimal {
	cleaned := strings.TrimSpace(amountReplacer.Replace(s))
	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		c.logger.Debug("unparseable amount, defaulting to zero", "row", row, "column", col, "value", s)
		return decimal.Zero
	}
	return d
}
