package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/models"
)

// UnsupportedFormatError is returned when a file's extension does not match
// any known statement format. It is fatal to the pipeline invocation.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Ext)
}

// Extractor reads raw statement files into untyped tables. Format is
// selected by file extension; no semantic typing happens here.
type Extractor struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Extractor {
	return &Extractor{
		logger: logger,
	}
}

// Extract reads the file at path into a RawTable. Supported extensions are
// .csv, .xls, .xlsx and .pdf; anything else fails with
// *UnsupportedFormatError.
func (e *Extractor) Extract(path string) (*models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	return e.ExtractReader(f, filepath.Ext(path))
}

// ExtractReader reads statement data from r, with ext deciding the format.
// The upload handler uses this to extract straight from the multipart
// stream.
func (e *Extractor) ExtractReader(r io.Reader, ext string) (*models.RawTable, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	e.logger.Debug("extracting statement", "format", ext)

	switch ext {
	case ".csv":
		return e.extractCSV(r)
	case ".xls":
		return e.extractXLS(r)
	case ".xlsx":
		return e.extractXLSX(r)
	case ".pdf":
		return e.extractPDF(r)
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}

// tableFromRecords turns a header-first record list into a RawTable. An
// empty record list yields an empty table, not an error.
func tableFromRecords(records [][]string) *models.RawTable {
	if len(records) == 0 {
		return &models.RawTable{}
	}
	return &models.RawTable{
		Columns: records[0],
		Rows:    records[1:],
	}
}
