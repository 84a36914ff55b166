// Package store persists canonical transactions to the relational
// row-store. The schema is owned externally; this package only issues the
// agreed query shapes against it.
package store

import (
	"context"
	"time"

	"github.com/statement-tools/bankstage/pkg/models"
)

// Store is the row-store surface the pipeline and the lifecycle manager
// need. Implementations acquire and release their own transactional scope
// per call; there is no cross-call locking.
type Store interface {
	// InsertTransactions bulk-loads the table's rows tagged with the
	// session id and returns how many rows were written.
	InsertTransactions(ctx context.Context, sessionID string, table *models.Table) (int64, error)

	// DeleteSession removes every row belonging to the session and
	// returns the deleted count. Deleting an absent session is not an
	// error; it deletes zero rows.
	DeleteSession(ctx context.Context, sessionID string) (int64, error)

	// DeleteAll removes every row in the transaction table.
	DeleteAll(ctx context.Context) (int64, error)

	// DeleteOlderThan removes rows persisted more than age ago. The full
	// duration is honored; sub-day ages are not rounded.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// ListSessions returns one entry per distinct session id, most
	// recently active first.
	ListSessions(ctx context.Context) ([]models.SessionInfo, error)

	Close()
}
