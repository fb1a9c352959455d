package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
)

// ReportQueryUseCase exposes stored reports and request tracking to
// the transport layer.
type ReportQueryUseCase struct {
	reports  ports.ReportStore
	analyses ports.AnalysisStore
}

func NewReportQueryUseCase(reports ports.ReportStore, analyses ports.AnalysisStore) *ReportQueryUseCase {
	return &ReportQueryUseCase{reports: reports, analyses: analyses}
}

func (uc *ReportQueryUseCase) GetReportByID(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get report", errors.New("empty report id"))
	}
	report, err := uc.reports.GetReportByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch report by id: %w", err)
	}
	return report, nil
}

// GetAnalysisByID returns the async request and, when completed, its
// report.
func (uc *ReportQueryUseCase) GetAnalysisByID(ctx context.Context, id string) (*domain.AnalysisRequest, *domain.ComplianceReport, error) {
	if id == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "get analysis", errors.New("empty analysis id"))
	}
	req, err := uc.analyses.GetRequestByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch analysis request: %w", err)
	}
	if req.Status != domain.AnalysisCompleted || req.ReportID == "" {
		return req, nil, nil
	}
	report, err := uc.reports.GetReportByID(ctx, req.ReportID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch report for analysis: %w", err)
	}
	return req, report, nil
}

func (uc *ReportQueryUseCase) ListRecentReports(ctx context.Context, limit int) ([]domain.ComplianceReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	reports, err := uc.reports.ListRecentReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent reports: %w", err)
	}
	return reports, nil
}
