// Package staging writes the canonical table to its session-scoped file
// artifact under the uploaded-data root.
package staging

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/models"
)

// ArtifactName is the fixed file name of the cleaned statement inside a
// session directory.
const ArtifactName = "cleaned_data.csv"

const dateLayout = "2006-01-02"

// Stager materializes canonical tables as downloadable CSV artifacts, one
// directory per session under the data root.
type Stager struct {
	dataDir string
	logger  *log.Logger
}

func New(dataDir string, logger *log.Logger) *Stager {
	return &Stager{
		dataDir: dataDir,
		logger:  logger,
	}
}

// DataDir returns the uploaded-data root.
func (s *Stager) DataDir() string {
	return s.dataDir
}

// SessionDir returns the directory holding a session's artifact.
func (s *Stager) SessionDir(sessionID string) string {
	return filepath.Join(s.dataDir, sessionID)
}

// ArtifactPath returns where a session's cleaned CSV lives, whether or not
// it exists yet.
func (s *Stager) ArtifactPath(sessionID string) string {
	return filepath.Join(s.SessionDir(sessionID), ArtifactName)
}

// Export writes the table as the session's cleaned CSV and returns the
// artifact path. The session directory is created as needed and a
// pre-existing artifact is overwritten, so re-processing a session replaces
// its staged file. The row-store is not touched here; file and database
// writes are independent side effects sequenced by the caller.
func (s *Stager) Export(table *models.Table, sessionID string) (string, error) {
	dir := s.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating session directory: %w", err)
	}

	path := s.ArtifactPath(sessionID)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return "", fmt.Errorf("error writing header: %w", err)
	}
	for i := range table.Rows {
		if err := w.Write(recordFor(table.Columns, &table.Rows[i])); err != nil {
			return "", fmt.Errorf("error writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error flushing artifact: %w", err)
	}

	s.logger.Info("exported session artifact", "session", sessionID, "path", path, "rows", len(table.Rows))
	return path, nil
}

// recordFor renders a transaction as CSV cells in the table's column order.
func recordFor(columns []string, tx *models.Transaction) []string {
	record := make([]string, len(columns))
	for i, col := range columns {
		switch col {
		case models.ColTransactionDate:
			record[i] = tx.Date.Format(dateLayout)
		case models.ColValueDate:
			if tx.ValueDate != nil {
				record[i] = tx.ValueDate.Format(dateLayout)
			}
		case models.ColRemarks:
			record[i] = tx.Remarks
		case models.ColDebit:
			record[i] = tx.Debit.StringFixed(2)
		case models.ColCredit:
			record[i] = tx.Credit.StringFixed(2)
		case models.ColBalance:
			record[i] = tx.Balance.StringFixed(2)
		default:
			record[i] = tx.Extra[col]
		}
	}
	return record
}
