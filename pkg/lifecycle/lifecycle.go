// Package lifecycle owns the teardown of session-scoped state: row-store
// rows and file artifacts share a session id as their only correlation key,
// so both are removed together.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/models"
	"github.com/statement-tools/bankstage/pkg/store"
)

// Result is the explicit outcome of a purge so the caller can render a
// definitive state to the operator instead of a raw fault.
type Result struct {
	RowsDeleted int64  `json:"rows_deleted"`
	Message     string `json:"message"`
}

// Manager deletes session-scoped rows and artifacts and reports the session
// inventory.
type Manager struct {
	store   store.Store
	dataDir string
	logger  *log.Logger
}

func New(st store.Store, dataDir string, logger *log.Logger) *Manager {
	return &Manager{
		store:   st,
		dataDir: dataDir,
		logger:  logger,
	}
}

// PurgeSession deletes the session's row-store rows, then its artifact
// directory. The database delete commits on its own; if the filesystem
// removal fails afterwards the operation reports failure without rolling
// the committed delete back, leaving the stores divergent. That asymmetry
// is accepted rather than reconciled. Purging a session that no longer
// exists anywhere succeeds with zero rows deleted.
func (m *Manager) PurgeSession(ctx context.Context, sessionID string) (Result, error) {
	deleted, err := m.store.DeleteSession(ctx, sessionID)
	if err != nil {
		m.logger.Error("session row cleanup failed", "session", sessionID, "error", err)
		return Result{Message: "cleanup failed: " + err.Error()}, err
	}
	m.logger.Info("deleted session rows", "session", sessionID, "rows", deleted)

	dir := filepath.Join(m.dataDir, sessionID)
	if _, statErr := os.Stat(dir); statErr == nil {
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Error("session folder cleanup failed", "session", sessionID, "dir", dir, "error", err)
			return Result{RowsDeleted: deleted, Message: "cleanup failed: " + err.Error()}, err
		}
		m.logger.Info("removed session folder", "dir", dir)
	}

	return Result{
		RowsDeleted: deleted,
		Message:     fmt.Sprintf("cleanup completed: %d records removed for session %s", deleted, sessionID),
	}, nil
}

// PurgeAll wipes the whole transaction table and resets the uploaded-data
// root, leaving an empty root directory ready for future sessions.
func (m *Manager) PurgeAll(ctx context.Context) (Result, error) {
	deleted, err := m.store.DeleteAll(ctx)
	if err != nil {
		m.logger.Error("full row cleanup failed", "error", err)
		return Result{Message: "cleanup failed: " + err.Error()}, err
	}
	m.logger.Info("deleted all rows", "rows", deleted)

	if _, statErr := os.Stat(m.dataDir); statErr == nil {
		if err := os.RemoveAll(m.dataDir); err != nil {
			m.logger.Error("data root cleanup failed", "dir", m.dataDir, "error", err)
			return Result{RowsDeleted: deleted, Message: "cleanup failed: " + err.Error()}, err
		}
	}
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		m.logger.Error("data root recreation failed", "dir", m.dataDir, "error", err)
		return Result{RowsDeleted: deleted, Message: "cleanup failed: " + err.Error()}, err
	}
	m.logger.Info("reset uploaded data root", "dir", m.dataDir)

	return Result{
		RowsDeleted: deleted,
		Message:     fmt.Sprintf("cleanup completed: %d records and all session folders removed", deleted),
	}, nil
}

// PurgeOlderThan removes rows persisted before now minus age. Periodic
// maintenance only touches the row-store; artifacts of stale sessions fall
// to PurgeSession or PurgeAll. The age must be positive: a zero cutoff
// would match every row, which is PurgeAll's job, not maintenance.
func (m *Manager) PurgeOlderThan(ctx context.Context, age time.Duration) (Result, error) {
	if age <= 0 {
		err := fmt.Errorf("age must be positive, got %s", age)
		return Result{Message: "cleanup failed: " + err.Error()}, err
	}

	deleted, err := m.store.DeleteOlderThan(ctx, age)
	if err != nil {
		m.logger.Error("old session cleanup failed", "error", err)
		return Result{Message: "cleanup failed: " + err.Error()}, err
	}

	return Result{
		RowsDeleted: deleted,
		Message:     fmt.Sprintf("removed %d records older than %s", deleted, age),
	}, nil
}

// ListSessions reports the sessions currently visible in the row-store. A
// session that was staged to disk but never loaded is invisible here; the
// row-store is the sole source of truth for inventory. Read failures are
// logged and surface as an empty list.
func (m *Manager) ListSessions(ctx context.Context) []models.SessionInfo {
	sessions, err := m.store.ListSessions(ctx)
	if err != nil {
		m.logger.Error("failed to list sessions", "error", err)
		return []models.SessionInfo{}
	}
	if sessions == nil {
		sessions = []models.SessionInfo{}
	}
	return sessions
}
