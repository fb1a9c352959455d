package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

func newReportRepoWithMock(t *testing.T) (*ReportRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ReportRepository{db: db}, mock, func() { _ = db.Close() }
}

func sampleReport() *domain.ComplianceReport {
	return &domain.ComplianceReport{
		ID:              "report-1",
		SystemName:      "cv ranker",
		Tier:            domain.TierHigh,
		CatalogVersion:  "2026.1",
		ComplianceScore: 0.42,
		ConfidenceLevel: "medium",
		Recommendations: []domain.Recommendation{
			{Title: "Document the risk management process", Priority: 1, Effort: domain.EffortHigh, Source: domain.SourceRuleBased, RequirementIDs: []string{"art9-risk-management"}},
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveReport(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	report := sampleReport()
	mock.ExpectExec("INSERT INTO compliance_reports").
		WithArgs(report.ID, report.SystemID, report.SystemName, string(report.Tier), report.CatalogVersion,
			report.ComplianceScore, report.ConfidenceLevel, report.Degraded, sqlmock.AnyArg(), report.GeneratedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveReport(context.Background(), report); err != nil {
		t.Fatalf("SaveReport() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetReportByIDRoundTripsPayload(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	report := sampleReport()
	payload, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	mock.ExpectQuery("SELECT payload").
		WithArgs("report-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := repo.GetReportByID(context.Background(), "report-1")
	if err != nil {
		t.Fatalf("GetReportByID() error: %v", err)
	}
	if got.ID != report.ID || got.Tier != report.Tier || len(got.Recommendations) != 1 {
		t.Fatalf("report round trip mismatch: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetReportByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT payload").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetReportByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentReports(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	payload, err := json.Marshal(sampleReport())
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	mock.ExpectQuery("SELECT payload").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload).AddRow(payload))

	reports, err := repo.ListRecentReports(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRecentReports() error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
