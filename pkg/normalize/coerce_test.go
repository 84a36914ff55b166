package normalize

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/models"
)

func TestCoerceAmounts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1,234.56Cr", "1234.56"},
		{"1,234.56 Dr", "1234.56"},
		{"10,00,000.00", "1000000.00"},
		{"500.00", "500.00"},
		{"N/A", "0.00"},
		{"", "0.00"},
		{"--", "0.00"},
	}

	coercer := NewCoercer(log.Default())
	for _, c := range cases {
		table := &models.RawTable{
			Columns: []string{"transaction_date", "debit"},
			Rows:    [][]string{{"01-01-2024", c.in}},
		}
		out := coercer.Coerce(table)
		if len(out.Rows) != 1 {
			t.Fatalf("Coerce(%q): expected 1 row, got %d", c.in, len(out.Rows))
		}
		if got := out.Rows[0].Debit.StringFixed(2); got != c.want {
			t.Errorf("Coerce(%q): debit = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestCoerceDropsRowsWithoutDate(t *testing.T) {
	table := &models.RawTable{
		Columns: []string{"transaction_date", "remarks"},
		Rows: [][]string{
			{"01-01-2024", "keep one"},
			{"not a date", "drop"},
			{"", "drop too"},
			{"03-01-2024", "keep two"},
		},
	}

	out := NewCoercer(log.Default()).Coerce(table)
	if len(out.Rows) > len(table.Rows) {
		t.Fatalf("Output larger than input: %d > %d", len(out.Rows), len(table.Rows))
	}
	if len(out.Rows) != 2 {
		t.Fatalf("Expected 2 surviving rows, got %d", len(out.Rows))
	}
	// survivors keep their relative order
	if out.Rows[0].Remarks != "keep one" || out.Rows[1].Remarks != "keep two" {
		t.Errorf("Survivor order broken: %+v", out.Rows)
	}
	for _, row := range out.Rows {
		if row.Date.IsZero() {
			t.Errorf("Surviving row has zero date: %+v", row)
		}
	}
}

func TestCoerceDateLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"01-01-2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"02-Jan-2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	coercer := NewCoercer(log.Default())
	for _, c := range cases {
		table := &models.RawTable{
			Columns: []string{"transaction_date"},
			Rows:    [][]string{{c.in}},
		}
		out := coercer.Coerce(table)
		if len(out.Rows) != 1 {
			t.Fatalf("Coerce(%q): row dropped", c.in)
		}
		if !out.Rows[0].Date.Equal(c.want) {
			t.Errorf("Coerce(%q): date = %s, want %s", c.in, out.Rows[0].Date, c.want)
		}
	}
}

func TestCoerceValueDateOptional(t *testing.T) {
	table := &models.RawTable{
		Columns: []string{"transaction_date", "value_date"},
		Rows: [][]string{
			{"01-01-2024", "02-01-2024"},
			{"01-01-2024", "pending"},
		},
	}

	out := NewCoercer(log.Default()).Coerce(table)
	if len(out.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(out.Rows))
	}
	if out.Rows[0].ValueDate == nil {
		t.Error("Expected value date on first row")
	}
	if out.Rows[1].ValueDate != nil {
		t.Error("Unparseable value date must become nil, not drop the row")
	}
}

func TestCoercePassesUnmappedColumnsThrough(t *testing.T) {
	table := &models.RawTable{
		Columns: []string{"transaction_date", "cheque no", "remarks"},
		Rows:    [][]string{{"01-01-2024", "000123", "Rent"}},
	}

	out := NewCoercer(log.Default()).Coerce(table)
	if len(out.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(out.Rows))
	}
	if got := out.Rows[0].Extra["cheque no"]; got != "000123" {
		t.Errorf("Unmapped column lost: got %q", got)
	}
	if out.Rows[0].Remarks != "Rent" {
		t.Errorf("Expected remarks %q, got %q", "Rent", out.Rows[0].Remarks)
	}
}

func TestCoerceEndToEndRow(t *testing.T) {
	table := &models.RawTable{
		Columns: []string{"transaction_date", "remarks", "debit", "credit", "balance"},
		Rows:    [][]string{{"01-01-2024", "Grocery", "500.00", "", "4500.00"}},
	}

	out := NewCoercer(log.Default()).Coerce(table)
	if len(out.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(out.Rows))
	}

	row := out.Rows[0]
	if !row.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 2024-01-01, got %s", row.Date)
	}
	if row.Remarks != "Grocery" {
		t.Errorf("Expected remarks Grocery, got %q", row.Remarks)
	}
	if row.Debit.StringFixed(2) != "500.00" || row.Credit.StringFixed(2) != "0.00" || row.Balance.StringFixed(2) != "4500.00" {
		t.Errorf("Amounts wrong: debit=%s credit=%s balance=%s", row.Debit, row.Credit, row.Balance)
	}
	if row.Amount().StringFixed(2) != "-500.00" {
		t.Errorf("Expected amount -500.00, got %s", row.Amount())
	}
}
