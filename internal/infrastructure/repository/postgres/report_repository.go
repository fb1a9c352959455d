package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS compliance_reports (
	id TEXT PRIMARY KEY,
	system_id TEXT,
	system_name TEXT NOT NULL,
	risk_tier TEXT NOT NULL,
	catalog_version TEXT NOT NULL,
	compliance_score DOUBLE PRECISION NOT NULL,
	confidence_level TEXT NOT NULL,
	degraded BOOLEAN NOT NULL DEFAULT FALSE,
	payload JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON compliance_reports(generated_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_risk_tier ON compliance_reports(risk_tier);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveReport stores the full report as a JSONB payload next to the
// columns queries filter and sort on.
func (r *ReportRepository) SaveReport(ctx context.Context, report *domain.ComplianceReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO compliance_reports (
	id, system_id, system_name, risk_tier, catalog_version, compliance_score, confidence_level, degraded, payload, generated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		report.ID, report.SystemID, report.SystemName, string(report.Tier), report.CatalogVersion,
		report.ComplianceScore, report.ConfidenceLevel, report.Degraded, payload, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetReportByID(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload
FROM compliance_reports
WHERE id = $1
`, id)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReportNotFound, "get report", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	var report domain.ComplianceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report payload: %w", err)
	}
	return &report, nil
}

func (r *ReportRepository) ListRecentReports(ctx context.Context, limit int) ([]domain.ComplianceReport, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT payload
FROM compliance_reports
ORDER BY generated_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ComplianceReport, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		var report domain.ComplianceReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("unmarshal report payload: %w", err)
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}
