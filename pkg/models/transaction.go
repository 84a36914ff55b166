package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names every statement is normalized onto. Columns the
// synonym map does not recognize pass through under their original name.
const (
	ColTransactionDate = "transaction_date"
	ColValueDate       = "value_date"
	ColRemarks         = "remarks"
	ColDebit           = "debit"
	ColCredit          = "credit"
	ColBalance         = "balance"
)

// Transaction is one canonical statement row. Date is never the zero value; rows
// without a parseable transaction date never survive coercion. Amounts are
// zero when the source cell was missing or unparseable.
type Transaction struct {
	Date      time.Time
	ValueDate *time.Time
	Remarks   string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Balance   decimal.Decimal
	// Extra holds unmapped source columns verbatim, keyed by their
	// normalized header name.
	Extra map[string]string
}

// Amount is the signed movement of the row: credit minus debit.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

// Table is a coerced canonical table. Columns preserves the normalized
// header order of the source so exports keep the statement's own column
// layout.
type Table struct {
	Columns []string
	Rows    []Transaction
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
