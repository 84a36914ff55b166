package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/statement-tools/bankstage/pkg/models"
)

const maxSheetRows = 10000

func (e *Extractor) extractXLS(r io.Reader) (*models.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xls: %w", err)
	}

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}

	rows := workbook.ReadAllCells(maxSheetRows)
	e.logger.Debug("xls extracted", "records", len(rows))
	return tableFromRecords(rows), nil
}

func (e *Extractor) extractXLSX(r io.Reader) (*models.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}

	e.logger.Debug("xlsx extracted", "sheet", sheet, "records", len(rows))
	return tableFromRecords(rows), nil
}
