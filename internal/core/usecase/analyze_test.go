package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

func newAnalyzeFixture(t *testing.T, retriever *retrieverFake, service *reasonerServiceFake) *AnalyzeUseCase {
	t.Helper()
	return NewAnalyzeUseCase(
		&catalogFake{snapshot: testSnapshot(t)},
		NewRequirementMatcher(retriever, 10, time.Second),
		NewNarrativeReasoner(service, time.Second),
		clockFake{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		10*time.Second,
	)
}

func hiringRetrieverHits() []domain.RetrievalHit {
	return []domain.RetrievalHit{
		{RequirementID: "art9-risk-management", Relevance: 0.95},
		{RequirementID: "art10-data-governance", Relevance: 0.9},
		{RequirementID: "art14-human-oversight", Relevance: 0.85},
		{RequirementID: "art13-employment-transparency", Relevance: 0.8},
	}
}

func TestAnalyzeHighRiskHiringSystem(t *testing.T) {
	retriever := &retrieverFake{hits: hiringRetrieverHits()}
	service := &reasonerServiceFake{responses: []string{validReasonerJSON}}
	uc := newAnalyzeFixture(t, retriever, service)

	report, err := uc.Analyze(context.Background(), highRiskHiringSystem())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if report.Tier != domain.TierHigh {
		t.Fatalf("tier = %s, want %s", report.Tier, domain.TierHigh)
	}
	if report.Degraded {
		t.Fatal("healthy services must not produce a degraded report")
	}
	if report.CatalogVersion != "test-v1" {
		t.Fatalf("catalog version = %q, want test-v1", report.CatalogVersion)
	}
	if len(report.Matched) != 4 {
		t.Fatalf("matched %d requirements, want 4", len(report.Matched))
	}
	if len(report.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if report.ComplianceScore < 0 || report.ComplianceScore > 1 {
		t.Fatalf("score %v outside [0,1]", report.ComplianceScore)
	}
	if report.ConfidenceLevel != "medium" {
		t.Fatalf("confidence = %q, want medium", report.ConfidenceLevel)
	}
	if !report.GeneratedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("generated_at = %v, want the fixed clock", report.GeneratedAt)
	}
	if !strings.Contains(report.ExecutiveSummary, "HIGH") {
		t.Fatal("executive summary must state the tier")
	}
}

func TestAnalyzeUnacceptableScoresZero(t *testing.T) {
	retriever := &retrieverFake{hits: hiringRetrieverHits()}
	service := &reasonerServiceFake{responses: []string{validReasonerJSON}}
	uc := newAnalyzeFixture(t, retriever, service)

	sys := validSystem("citizen score", domain.DomainOther)
	sys.Features.SocialScoring = true

	report, err := uc.Analyze(context.Background(), sys)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if report.Tier != domain.TierUnacceptable {
		t.Fatalf("tier = %s, want %s", report.Tier, domain.TierUnacceptable)
	}
	if report.ComplianceScore != 0 {
		t.Fatalf("score = %v, want 0", report.ComplianceScore)
	}
	for _, rec := range report.Recommendations {
		if !strings.HasPrefix(rec.Title, "Prohibited practice") {
			t.Fatalf("unexpected recommendation for prohibited system: %q", rec.Title)
		}
	}
}

func TestAnalyzeMinimalRiskScoresOne(t *testing.T) {
	retriever := &retrieverFake{}
	service := &reasonerServiceFake{responses: []string{`{"risk_reasoning": "minimal", "actions": []}`}}
	uc := newAnalyzeFixture(t, retriever, service)

	sys := validSystem("stock forecast", domain.DomainOther)
	sys.Description = "Forecasts warehouse inventory levels from seasonal sales history."

	report, err := uc.Analyze(context.Background(), sys)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if report.Tier != domain.TierMinimal {
		t.Fatalf("tier = %s, want %s", report.Tier, domain.TierMinimal)
	}
	if report.ComplianceScore != 1 {
		t.Fatalf("score = %v, want 1 with no applicable requirements", report.ComplianceScore)
	}
}

func TestAnalyzeDegradesInsteadOfFailing(t *testing.T) {
	retriever := &retrieverFake{err: errors.New("retrieval backend down")}
	service := &reasonerServiceFake{errs: []error{errors.New("reasoning service down")}}
	uc := newAnalyzeFixture(t, retriever, service)

	report, err := uc.Analyze(context.Background(), highRiskHiringSystem())
	if err != nil {
		t.Fatalf("Analyze() must degrade, got error: %v", err)
	}
	if !report.Degraded {
		t.Fatal("expected degraded report")
	}
	if report.ConfidenceLevel != "low" {
		t.Fatalf("confidence = %q, want low", report.ConfidenceLevel)
	}
	// No retrieval means no established coverage: the match list stays
	// empty and the score reflects that nothing is covered, while
	// rule-derived recommendations still give the caller a plan.
	if len(report.Matched) != 0 {
		t.Fatalf("degraded retrieval yielded %d matches, want none", len(report.Matched))
	}
	if report.ComplianceScore != 0 {
		t.Fatalf("score = %v, want 0 when no coverage was established", report.ComplianceScore)
	}
	if len(report.Recommendations) == 0 {
		t.Fatal("degraded analysis must still recommend actions")
	}
	for _, rec := range report.Recommendations {
		if rec.Source != domain.SourceRuleBased {
			t.Fatalf("degraded recommendation source = %s, want %s", rec.Source, domain.SourceRuleBased)
		}
	}
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	uc := newAnalyzeFixture(t, &retrieverFake{}, &reasonerServiceFake{})

	sys := validSystem("", domain.DomainOther)
	if _, err := uc.Analyze(context.Background(), sys); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeWithoutCatalog(t *testing.T) {
	uc := NewAnalyzeUseCase(
		&catalogFake{err: domain.ErrCatalogUnavailable},
		NewRequirementMatcher(&retrieverFake{}, 10, time.Second),
		NewNarrativeReasoner(&reasonerServiceFake{}, time.Second),
		clockFake{now: time.Now()},
		time.Second,
	)
	if _, err := uc.Analyze(context.Background(), highRiskHiringSystem()); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("error = %v, want ErrCatalogUnavailable", err)
	}
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	retriever := &retrieverFake{hits: hiringRetrieverHits()}
	service := &reasonerServiceFake{responses: []string{validReasonerJSON, validReasonerJSON}}
	uc := newAnalyzeFixture(t, retriever, service)

	first, err := uc.Analyze(context.Background(), highRiskHiringSystem())
	if err != nil {
		t.Fatalf("first Analyze() error: %v", err)
	}
	second, err := uc.Analyze(context.Background(), highRiskHiringSystem())
	if err != nil {
		t.Fatalf("second Analyze() error: %v", err)
	}

	if first.Tier != second.Tier || first.ComplianceScore != second.ComplianceScore {
		t.Fatalf("analysis not repeatable: (%s, %v) vs (%s, %v)",
			first.Tier, first.ComplianceScore, second.Tier, second.ComplianceScore)
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatalf("recommendation counts differ: %d vs %d", len(first.Recommendations), len(second.Recommendations))
	}
	for i := range first.Recommendations {
		if first.Recommendations[i].Title != second.Recommendations[i].Title {
			t.Fatalf("recommendation order differs at %d", i)
		}
	}
}
