package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analysis_requests (
	id TEXT PRIMARY KEY,
	system_payload JSONB NOT NULL,
	status TEXT NOT NULL,
	report_id TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_requests_status ON analysis_requests(status);
CREATE INDEX IF NOT EXISTS idx_analysis_requests_created_at ON analysis_requests(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) CreateRequest(ctx context.Context, req *domain.AnalysisRequest) error {
	systemJSON, err := json.Marshal(req.System)
	if err != nil {
		return fmt.Errorf("marshal system payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO analysis_requests (
	id, system_payload, status, report_id, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		req.ID, systemJSON, string(req.Status), req.ReportID, req.Error, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis request: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetRequestByID(ctx context.Context, id string) (*domain.AnalysisRequest, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, system_payload, status, report_id, error_message, created_at, updated_at
FROM analysis_requests
WHERE id = $1
`, id)

	var req domain.AnalysisRequest
	var systemRaw []byte
	var status string
	var reportID, errMessage sql.NullString

	err := row.Scan(&req.ID, &systemRaw, &status, &reportID, &errMessage, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrAnalysisNotFound, "get analysis request", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan analysis request: %w", err)
	}

	if err := json.Unmarshal(systemRaw, &req.System); err != nil {
		return nil, fmt.Errorf("unmarshal system payload: %w", err)
	}
	req.Status = domain.AnalysisStatus(status)
	req.ReportID = reportID.String
	req.Error = errMessage.String
	return &req, nil
}

func (r *AnalysisRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.AnalysisProcessing, "", "")
}

func (r *AnalysisRepository) MarkCompleted(ctx context.Context, id, reportID string) error {
	return r.setStatus(ctx, id, domain.AnalysisCompleted, reportID, "")
}

func (r *AnalysisRepository) MarkFailed(ctx context.Context, id, errMessage string) error {
	return r.setStatus(ctx, id, domain.AnalysisFailed, "", errMessage)
}

func (r *AnalysisRepository) setStatus(ctx context.Context, id string, status domain.AnalysisStatus, reportID, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE analysis_requests
SET status = $2, report_id = NULLIF($3, ''), error_message = NULLIF($4, ''), updated_at = $5
WHERE id = $1
`, id, string(status), reportID, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return domain.WrapError(domain.ErrAnalysisNotFound, "update analysis status", fmt.Errorf("id %s", id))
	}
	return nil
}
