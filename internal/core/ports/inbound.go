package ports

import (
	"context"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

// ComplianceAnalyzer is the inbound contract for one analysis call.
// Given a structurally valid description it always returns a report;
// input validation is the only error the caller can see.
type ComplianceAnalyzer interface {
	Analyze(ctx context.Context, system domain.SystemDescription) (*domain.ComplianceReport, error)
}

// ReportReader is the inbound read model for stored reports.
type ReportReader interface {
	GetReportByID(ctx context.Context, id string) (*domain.ComplianceReport, error)
}

// AnalysisEnqueuer is the inbound contract for asynchronous analysis.
type AnalysisEnqueuer interface {
	Enqueue(ctx context.Context, system domain.SystemDescription) (*domain.AnalysisRequest, error)
}

// AnalysisProcessor is the inbound contract for the worker: run one
// queued analysis end to end.
type AnalysisProcessor interface {
	ProcessByID(ctx context.Context, requestID string) error
}
