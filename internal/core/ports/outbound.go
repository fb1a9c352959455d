package ports

import (
	"context"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

// RequirementRetriever is the knowledge retrieval service contract:
// given a query string, return ranked candidate requirement references.
// No assumption is made about its internal ranking beyond relevance
// score ordering.
type RequirementRetriever interface {
	Query(ctx context.Context, text string, domainFilter []domain.ApplicationDomain, topK int) ([]domain.RetrievalHit, error)
}

// RequirementIndexer feeds catalog snapshots into the retrieval
// backend. Implemented alongside RequirementRetriever by backends that
// own their own index.
type RequirementIndexer interface {
	IndexSnapshot(ctx context.Context, snapshot *domain.CatalogSnapshot) error
}

// ReasoningService is the natural-language reasoning contract. The
// response is untrusted free text: callers must validate it at the
// boundary.
type ReasoningService interface {
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}

// CatalogProvider hands out the currently active catalog snapshot.
// Snapshots are immutable; Swap publishes a new version atomically
// while in-flight analyses keep reading the one they started with.
type CatalogProvider interface {
	Active() (*domain.CatalogSnapshot, error)
	Swap(snapshot *domain.CatalogSnapshot)
}

// ReportStore persists completed compliance reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report *domain.ComplianceReport) error
	GetReportByID(ctx context.Context, id string) (*domain.ComplianceReport, error)
	ListRecentReports(ctx context.Context, limit int) ([]domain.ComplianceReport, error)
}

// AnalysisStore persists asynchronous analysis requests.
type AnalysisStore interface {
	CreateRequest(ctx context.Context, req *domain.AnalysisRequest) error
	GetRequestByID(ctx context.Context, id string) (*domain.AnalysisRequest, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, reportID string) error
	MarkFailed(ctx context.Context, id, errMessage string) error
}

// AnalysisQueue publishes/consumes asynchronous analysis jobs.
type AnalysisQueue interface {
	PublishAnalysisRequested(ctx context.Context, requestID string) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// Clock abstracts time for deterministic report timestamps in tests.
type Clock interface {
	Now() time.Time
}
