package extract

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/statement-tools/bankstage/pkg/models"
)

func (e *Extractor) extractCSV(r io.Reader) (*models.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // bank exports pad rows inconsistently

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	e.logger.Debug("csv extracted", "records", len(records))
	return tableFromRecords(records), nil
}
