package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
)

// EnqueueAnalysisUseCase accepts a system description, persists it as
// a queued request and publishes it for the worker.
type EnqueueAnalysisUseCase struct {
	store ports.AnalysisStore
	queue ports.AnalysisQueue
	clock ports.Clock
}

func NewEnqueueAnalysisUseCase(store ports.AnalysisStore, queue ports.AnalysisQueue, clock ports.Clock) *EnqueueAnalysisUseCase {
	return &EnqueueAnalysisUseCase{store: store, queue: queue, clock: clock}
}

func (uc *EnqueueAnalysisUseCase) Enqueue(ctx context.Context, sys domain.SystemDescription) (*domain.AnalysisRequest, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC()
	req := &domain.AnalysisRequest{
		ID:        uuid.NewString(),
		System:    sys,
		Status:    domain.AnalysisQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("persist analysis request: %w", err)
	}
	if err := uc.queue.PublishAnalysisRequested(ctx, req.ID); err != nil {
		// The request row survives; a requeue sweep or manual retry can
		// pick it up, so publication failure is reported, not rolled back.
		return nil, fmt.Errorf("publish analysis request: %w", err)
	}
	return req, nil
}

// ProcessAnalysisUseCase is the worker side: load a queued request,
// run the analysis, persist the report and settle the request status.
type ProcessAnalysisUseCase struct {
	analyzer ports.ComplianceAnalyzer
	store    ports.AnalysisStore
	reports  ports.ReportStore
}

func NewProcessAnalysisUseCase(analyzer ports.ComplianceAnalyzer, store ports.AnalysisStore, reports ports.ReportStore) *ProcessAnalysisUseCase {
	return &ProcessAnalysisUseCase{analyzer: analyzer, store: store, reports: reports}
}

func (uc *ProcessAnalysisUseCase) ProcessByID(ctx context.Context, requestID string) error {
	if err := uc.store.MarkProcessing(ctx, requestID); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	reportID, err := uc.runPipeline(ctx, requestID)
	if err != nil {
		if failErr := uc.store.MarkFailed(ctx, requestID, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.store.MarkCompleted(ctx, requestID, reportID); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

func (uc *ProcessAnalysisUseCase) runPipeline(ctx context.Context, requestID string) (string, error) {
	req, err := uc.store.GetRequestByID(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("fetch analysis request: %w", err)
	}

	report, err := uc.analyzer.Analyze(ctx, req.System)
	if err != nil {
		return "", fmt.Errorf("analyze system: %w", err)
	}

	if err := uc.reports.SaveReport(ctx, report); err != nil {
		return "", fmt.Errorf("persist report: %w", err)
	}
	return report.ID, nil
}
