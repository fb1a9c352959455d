package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
)

// AnalyzeUseCase runs one compliance analysis end to end: classify,
// match, reason, synthesize. External services may fail or time out
// mid-flight; the pipeline absorbs that into a degraded report rather
// than surfacing it, so the only error a caller can observe is invalid
// input or a missing catalog.
type AnalyzeUseCase struct {
	catalog  ports.CatalogProvider
	matcher  *RequirementMatcher
	reasoner *NarrativeReasoner
	clock    ports.Clock
	budget   time.Duration
}

func NewAnalyzeUseCase(
	catalog ports.CatalogProvider,
	matcher *RequirementMatcher,
	reasoner *NarrativeReasoner,
	clock ports.Clock,
	budget time.Duration,
) *AnalyzeUseCase {
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &AnalyzeUseCase{
		catalog:  catalog,
		matcher:  matcher,
		reasoner: reasoner,
		clock:    clock,
		budget:   budget,
	}
}

func (uc *AnalyzeUseCase) Analyze(ctx context.Context, sys domain.SystemDescription) (*domain.ComplianceReport, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.budget)
	defer cancel()

	snapshot, err := uc.catalog.Active()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCatalogUnavailable, "load active catalog", err)
	}

	reportID := uuid.NewString()
	log := slog.With("report_id", reportID, "system_name", sys.Name)
	log.Info("analysis_state", "state", string(domain.StateReceived))

	tier, rule := classifyRisk(sys)
	log.Info("analysis_state", "state", string(domain.StateClassified), "tier", string(tier), "rule", rule)

	applicable := snapshot.Applicable(tier, sys.Domains())

	// A degraded match stays empty: the score must reflect that no
	// requirement coverage was established, not pretend the whole
	// applicable set was covered. Rule-derived recommendations below
	// still give the caller an action plan.
	matched, matchDegraded := uc.matcher.Match(ctx, snapshot, sys, tier)
	log.Info("analysis_state", "state", string(domain.StateMatched),
		"matched", len(matched), "applicable", len(applicable), "degraded", matchDegraded)

	reasoned := uc.reasoner.Synthesize(ctx, sys, matched, applicable)

	recs, score := SynthesizeRecommendations(tier, fallbackCandidates(applicable, matched), reasoned.Candidates, matched, applicable)
	log.Info("analysis_state", "state", string(domain.StateSynthesized),
		"recommendations", len(recs), "score", score, "degraded", reasoned.Degraded)

	degraded := matchDegraded || reasoned.Degraded
	severity := severityIndex(applicable, matched)

	report := &domain.ComplianceReport{
		ID:                      reportID,
		SystemID:                sys.ID,
		SystemName:              sys.Name,
		Tier:                    tier,
		CatalogVersion:          snapshot.Version(),
		Matched:                 matched,
		Recommendations:         recs,
		ComplianceScore:         score,
		ExecutiveSummary:        buildExecutiveSummary(sys, tier, matched, recs, severity, reasoned.RiskReasoning),
		KeyRisks:                keyRisks(matched),
		ImmediateActions:        immediateActions(recs, severity),
		EstimatedComplianceTime: estimateComplianceTime(recs, severity),
		ConfidenceLevel:         confidenceLevel(degraded),
		Degraded:                degraded,
		GeneratedAt:             uc.clock.Now().UTC(),
	}

	log.Info("analysis_state", "state", string(domain.StateCompleted),
		"tier", string(tier), "score", score, "degraded", degraded)
	return report, nil
}
