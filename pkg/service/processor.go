package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/statement-tools/bankstage/pkg/extract"
	"github.com/statement-tools/bankstage/pkg/models"
	"github.com/statement-tools/bankstage/pkg/normalize"
	"github.com/statement-tools/bankstage/pkg/staging"
	"github.com/statement-tools/bankstage/pkg/store"
)

// Outcome summarizes one pipeline run.
type Outcome struct {
	SessionID    string `json:"session_id"`
	ArtifactPath string `json:"csv_path"`
	Rows         int    `json:"rows"`
	Inserted     int64  `json:"inserted"`
}

// Processor runs the statement pipeline: extract, normalize, coerce, stage
// the file artifact, then load the row-store. One invocation handles one
// file sequentially; concurrent invocations for different sessions are the
// caller's business.
type Processor struct {
	extractor *extract.Extractor
	coercer   *normalize.Coercer
	stager    *staging.Stager
	store     store.Store
	logger    *log.Logger
}

func NewProcessor(st store.Store, stager *staging.Stager, logger *log.Logger) *Processor {
	return &Processor{
		extractor: extract.New(logger),
		coercer:   normalize.NewCoercer(logger),
		stager:    stager,
		store:     st,
		logger:    logger,
	}
}

// ProcessFile runs the pipeline over a file on disk under the given session
// id. When load is false the rows are staged to the artifact only and the
// row-store is left alone.
func (p *Processor) ProcessFile(ctx context.Context, path, sessionID string, load bool) (*Outcome, error) {
	raw, err := p.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, raw, sessionID, load)
}

// ProcessUpload runs the pipeline over an uploaded stream, minting a fresh
// session id. The filename only contributes its extension.
func (p *Processor) ProcessUpload(ctx context.Context, r io.Reader, filename string) (*Outcome, error) {
	raw, err := p.extractor.ExtractReader(r, filepath.Ext(filename))
	if err != nil {
		return nil, err
	}
	return p.run(ctx, raw, uuid.New().String(), true)
}

func (p *Processor) run(ctx context.Context, raw *models.RawTable, sessionID string, load bool) (*Outcome, error) {
	table := p.coercer.Coerce(normalize.DropEmptyRows(normalize.NormalizeHeaders(raw)))

	outcome := &Outcome{
		SessionID: sessionID,
		Rows:      len(table.Rows),
	}

	// A document that yielded nothing is a valid empty result, not a
	// failure. There is nothing to stage or load.
	if len(table.Columns) == 0 {
		p.logger.Info("statement produced no table", "session", sessionID)
		return outcome, nil
	}

	path, err := p.stager.Export(table, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error staging artifact: %w", err)
	}
	outcome.ArtifactPath = path

	if load && !table.Empty() {
		inserted, err := p.store.InsertTransactions(ctx, sessionID, table)
		if err != nil {
			return nil, fmt.Errorf("error loading rows: %w", err)
		}
		outcome.Inserted = inserted
	}

	p.logger.Info("statement processed", "session", sessionID, "rows", outcome.Rows, "inserted", outcome.Inserted)
	return outcome, nil
}
