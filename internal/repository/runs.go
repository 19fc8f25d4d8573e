package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/citecheck/constants"
	"github.com/joseph-ayodele/citecheck/internal/common"
	"github.com/joseph-ayodele/citecheck/internal/oracle"
)

// RunRow mirrors one verification_run record.
type RunRow struct {
	ID            uuid.UUID
	Filename      string
	Status        constants.RunStatus
	PageCount     int
	TextChars     int
	AssembledText string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RunRepository persists pipeline invocations and their citation records.
type RunRepository interface {
	Create(ctx context.Context, filename string) (RunRow, error)
	FinishExtract(ctx context.Context, id uuid.UUID, pageCount int, text string) error
	FinishVerify(ctx context.Context, id uuid.UUID, records []oracle.CitationRecord) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	GetByID(ctx context.Context, id uuid.UUID) (RunRow, error)
	ListCitations(ctx context.Context, runID uuid.UUID) ([]oracle.CitationRecord, error)
}

type pgRunRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRunRepository(pool *pgxpool.Pool, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgRunRepository{pool: pool, logger: logger}
}

func (r *pgRunRepository) Create(ctx context.Context, filename string) (RunRow, error) {
	row := RunRow{
		ID:       uuid.New(),
		Filename: filename,
		Status:   constants.RunStatusRunning,
	}
	const q = `
		INSERT INTO verification_run (id, filename, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, row.ID, row.Filename, string(row.Status)).
		Scan(&row.CreatedAt, &row.UpdatedAt); err != nil {
		return RunRow{}, common.WrapError(err, "insert verification_run")
	}
	return row, nil
}

func (r *pgRunRepository) FinishExtract(ctx context.Context, id uuid.UUID, pageCount int, text string) error {
	const q = `
		UPDATE verification_run
		SET status = $2, page_count = $3, text_chars = $4, assembled_text = $5, updated_at = now()
		WHERE id = $1`
	ct, err := r.pool.Exec(ctx, q, id, string(constants.RunStatusExtractOK), pageCount, len(text), text)
	if err != nil {
		return common.WrapError(err, "update run extract")
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgRunRepository) FinishVerify(ctx context.Context, id uuid.UUID, records []oracle.CitationRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			r.logger.Warn("rollback failed", "run_id", id, "error", rerr)
		}
	}()

	const upd = `
		UPDATE verification_run SET status = $2, updated_at = now() WHERE id = $1`
	ct, err := tx.Exec(ctx, upd, id, string(constants.RunStatusVerifyOK))
	if err != nil {
		return common.WrapError(err, "update run verify")
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}

	const ins = `
		INSERT INTO citation_record
			(id, run_id, original_text, corrected_text, status, court_name, decision_date, note, sources, pinpoint_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, rec := range records {
		if _, err := tx.Exec(ctx, ins,
			rec.ID, id, rec.OriginalText, rec.CorrectedText, string(rec.Status),
			rec.CourtName, rec.DecisionDate, rec.Note, rec.Sources, rec.Pinpoint,
		); err != nil {
			return common.WrapError(err, fmt.Sprintf("insert citation %s", rec.ID))
		}
	}

	return tx.Commit(ctx)
}

func (r *pgRunRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `
		UPDATE verification_run
		SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, string(constants.RunStatusFailed), errMsg)
	return common.WrapError(err, "mark run failed")
}

func (r *pgRunRepository) GetByID(ctx context.Context, id uuid.UUID) (RunRow, error) {
	const q = `
		SELECT id, filename, status, page_count, text_chars,
		       COALESCE(assembled_text, ''), COALESCE(error_message, ''),
		       created_at, updated_at
		FROM verification_run WHERE id = $1`
	var row RunRow
	var status string
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&row.ID, &row.Filename, &status, &row.PageCount, &row.TextChars,
		&row.AssembledText, &row.ErrorMessage, &row.CreatedAt, &row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return RunRow{}, common.ErrNotFound
	}
	if err != nil {
		return RunRow{}, common.WrapError(err, "select verification_run")
	}
	row.Status = constants.RunStatus(status)
	return row, nil
}

func (r *pgRunRepository) ListCitations(ctx context.Context, runID uuid.UUID) ([]oracle.CitationRecord, error) {
	const q = `
		SELECT id, original_text, corrected_text, status,
		       COALESCE(court_name, ''), COALESCE(decision_date, ''), COALESCE(note, ''),
		       COALESCE(sources, '{}'), COALESCE(pinpoint_reference, '')
		FROM citation_record WHERE run_id = $1
		ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, common.WrapError(err, "select citation_record")
	}
	defer rows.Close()

	var out []oracle.CitationRecord
	for rows.Next() {
		var rec oracle.CitationRecord
		var status string
		if err := rows.Scan(
			&rec.ID, &rec.OriginalText, &rec.CorrectedText, &status,
			&rec.CourtName, &rec.DecisionDate, &rec.Note, &rec.Sources, &rec.Pinpoint,
		); err != nil {
			return nil, common.WrapError(err, "scan citation_record")
		}
		rec.Status = oracle.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
