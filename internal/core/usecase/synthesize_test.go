package usecase

import (
	"testing"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

func matchAll(records []domain.RequirementRecord) []domain.MatchedRequirement {
	out := make([]domain.MatchedRequirement, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.MatchedRequirement{Requirement: rec, Relevance: 0.8, Rationale: "test"})
	}
	return out
}

func TestSynthesizePriorityRanksAreStrict(t *testing.T) {
	snap := testSnapshot(t)
	applicable := snap.Applicable(domain.TierHigh, []domain.ApplicationDomain{domain.DomainEmployment})
	matched := matchAll(applicable)

	recs, _ := SynthesizeRecommendations(domain.TierHigh, fallbackCandidates(applicable, matched), nil, matched, applicable)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	for i, rec := range recs {
		if rec.Priority != i+1 {
			t.Fatalf("position %d has priority %d; ranks must be 1..n with no ties", i, rec.Priority)
		}
	}
}

func TestSynthesizeOrdersBySeverityThenEffort(t *testing.T) {
	snap := testSnapshot(t)
	applicable := snap.Applicable(domain.TierHigh, []domain.ApplicationDomain{domain.DomainEmployment})
	matched := matchAll(applicable)

	recs, _ := SynthesizeRecommendations(domain.TierHigh, fallbackCandidates(applicable, matched), nil, matched, applicable)

	severity := severityIndex(applicable, matched)
	for i := 1; i < len(recs); i++ {
		prev := candidateSeverity(recommendationCandidate{requirementIDs: recs[i-1].RequirementIDs}, severity)
		cur := candidateSeverity(recommendationCandidate{requirementIDs: recs[i].RequirementIDs}, severity)
		if cur > prev {
			t.Fatalf("severity order violated at position %d: %v before %v", i, prev, cur)
		}
	}
	// The most severe requirement's remediation leads the plan.
	if len(recs[0].RequirementIDs) == 0 || recs[0].RequirementIDs[0] != "art9-risk-management" {
		t.Fatalf("first recommendation links %v, want art9-risk-management", recs[0].RequirementIDs)
	}
}

func TestSynthesizeDedupesExactRequirementSets(t *testing.T) {
	snap := testSnapshot(t)
	rec, _ := snap.ByID("art14-human-oversight")
	applicable := []domain.RequirementRecord{rec}
	matched := matchAll(applicable)

	rule := fallbackCandidates(applicable, matched)
	reasoning := []recommendationCandidate{{
		title:          "Give reviewers an effective override of system output",
		detail:         "Expose per-decision override controls to trained reviewers.",
		signal:         0,
		effort:         domain.EffortMedium,
		source:         domain.SourceReasoningService,
		requirementIDs: []string{"art14-human-oversight"},
	}}

	recs, _ := SynthesizeRecommendations(domain.TierHigh, rule, reasoning, matched, applicable)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1 after exact-set dedupe", len(recs))
	}
	// The reasoning candidate carries the stronger signal and wins.
	if recs[0].Source != domain.SourceReasoningService {
		t.Fatalf("kept source = %s, want %s", recs[0].Source, domain.SourceReasoningService)
	}
}

func TestSynthesizeDedupesNearDuplicateText(t *testing.T) {
	base := recommendationCandidate{
		title:          "Audit training data for historical bias",
		detail:         "Run representativeness and bias checks on the training data sets.",
		signal:         1,
		effort:         domain.EffortMedium,
		source:         domain.SourceRuleBased,
		requirementIDs: []string{"art10-data-governance"},
	}
	nearDup := recommendationCandidate{
		title:          "Audit the training data for historical bias issues",
		detail:         "Run representativeness and bias checks on all training data sets.",
		signal:         1,
		effort:         domain.EffortMedium,
		source:         domain.SourceReasoningService,
		requirementIDs: []string{"art10-data-governance", "art9-risk-management"},
	}

	merged := dedupeCandidates([]recommendationCandidate{base, nearDup})
	if len(merged) != 1 {
		t.Fatalf("got %d candidates, want 1 after near-duplicate collapse", len(merged))
	}
	// Tie on signal keeps the rule-based text but unions the links.
	if merged[0].source != domain.SourceRuleBased {
		t.Fatalf("kept source = %s, want %s", merged[0].source, domain.SourceRuleBased)
	}
	if len(merged[0].requirementIDs) != 2 {
		t.Fatalf("requirement links = %v, want union of both", merged[0].requirementIDs)
	}
}

func TestSynthesizeDistinctCandidatesSurvive(t *testing.T) {
	a := recommendationCandidate{
		title:          "Document the risk management process",
		detail:         "Produce and maintain lifecycle risk documentation.",
		signal:         1,
		effort:         domain.EffortHigh,
		source:         domain.SourceRuleBased,
		requirementIDs: []string{"art9-risk-management"},
	}
	b := recommendationCandidate{
		title:          "Disclose chatbot interaction to end users",
		detail:         "Show an AI interaction notice at conversation start.",
		signal:         2,
		effort:         domain.EffortLow,
		source:         domain.SourceRuleBased,
		requirementIDs: []string{"art50-disclosure"},
	}

	merged := dedupeCandidates([]recommendationCandidate{a, b})
	if len(merged) != 2 {
		t.Fatalf("got %d candidates, want 2", len(merged))
	}
}

func TestComplianceScore(t *testing.T) {
	snap := testSnapshot(t)
	applicable := snap.Applicable(domain.TierHigh, []domain.ApplicationDomain{domain.DomainEmployment})

	t.Run("full coverage scores 1", func(t *testing.T) {
		if got := complianceScore(matchAll(applicable), applicable); got != 1 {
			t.Fatalf("score = %v, want 1", got)
		}
	})

	t.Run("no applicable requirements scores 1", func(t *testing.T) {
		if got := complianceScore(nil, nil); got != 1 {
			t.Fatalf("score = %v, want 1", got)
		}
	})

	t.Run("partial coverage weighted by severity", func(t *testing.T) {
		matched := matchAll(applicable[:2])
		got := complianceScore(matched, applicable)
		if got <= 0 || got >= 1 {
			t.Fatalf("score = %v, want strictly between 0 and 1", got)
		}
	})

	t.Run("dropping a severe requirement costs more", func(t *testing.T) {
		// art9 (0.9) missing vs gdpr (0.6) missing.
		withoutSevere := complianceScore(matchedExcept(applicable, "art9-risk-management"), applicable)
		withoutMild := complianceScore(matchedExcept(applicable, "gdpr-data-protection"), applicable)
		if withoutSevere >= withoutMild {
			t.Fatalf("missing severe requirement scored %v, missing mild scored %v", withoutSevere, withoutMild)
		}
	})
}

func matchedExcept(records []domain.RequirementRecord, skip string) []domain.MatchedRequirement {
	out := make([]domain.MatchedRequirement, 0, len(records))
	for _, rec := range records {
		if rec.ID == skip {
			continue
		}
		out = append(out, domain.MatchedRequirement{Requirement: rec, Relevance: 0.8})
	}
	return out
}

func TestSynthesizeUnacceptableIsTerminal(t *testing.T) {
	snap := testSnapshot(t)
	prohibitions := snap.Applicable(domain.TierUnacceptable, []domain.ApplicationDomain{domain.DomainOther})
	matched := matchAll(prohibitions)

	recs, score := SynthesizeRecommendations(domain.TierUnacceptable, fallbackCandidates(nil, matched), nil, matched, nil)
	if score != 0 {
		t.Fatalf("score = %v, want 0 for prohibited systems", score)
	}
	if len(recs) != len(matched) {
		t.Fatalf("got %d notices, want %d", len(recs), len(matched))
	}
	for _, rec := range recs {
		if rec.Source != domain.SourceRuleBased {
			t.Fatalf("prohibition notice source = %s, want %s", rec.Source, domain.SourceRuleBased)
		}
	}
}
