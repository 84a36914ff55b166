package store

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statement-tools/bankstage/pkg/models"
)

const transactionTable = "fact_transactions"

// Postgres is the pgx-backed row-store. Every operation runs in its own
// transaction with a deferred rollback, so the connection is released on
// every exit path.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres connects a pool to databaseURL and verifies it with a ping.
func NewPostgres(ctx context.Context, databaseURL string, logger *log.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) InsertTransactions(ctx context.Context, sessionID string, table *models.Table) (int64, error) {
	if table.Empty() {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	columns := []string{"session_id", "transaction_date", "value_date", "remarks", "debit", "credit", "amount", "balance"}
	rows := make([][]any, len(table.Rows))
	for i := range table.Rows {
		t := &table.Rows[i]
		var valueDate any
		if t.ValueDate != nil {
			valueDate = *t.ValueDate
		}
		rows[i] = []any{sessionID, t.Date, valueDate, t.Remarks, t.Debit, t.Credit, t.Amount(), t.Balance}
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{transactionTable}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("error staging rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing insert: %w", err)
	}

	p.logger.Info("persisted session rows", "session", sessionID, "rows", copied)
	return copied, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	return p.delete(ctx, `DELETE FROM fact_transactions WHERE session_id = $1`, sessionID)
}

func (p *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	return p.delete(ctx, `DELETE FROM fact_transactions`)
}

func (p *Postgres) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return p.delete(ctx, `DELETE FROM fact_transactions WHERE created_at < now() - make_interval(secs => $1)`, age.Seconds())
}

func (p *Postgres) delete(ctx context.Context, query string, args ...any) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) ListSessions(ctx context.Context) ([]models.SessionInfo, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT session_id,
		       COUNT(*)        AS record_count,
		       MIN(created_at) AS first_upload,
		       MAX(created_at) AS last_upload
		FROM fact_transactions
		GROUP BY session_id
		ORDER BY last_upload DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SessionInfo
	for rows.Next() {
		var s models.SessionInfo
		if err := rows.Scan(&s.SessionID, &s.RecordCount, &s.FirstUpload, &s.LastUpload); err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

var _ Store = (*Postgres)(nil)
