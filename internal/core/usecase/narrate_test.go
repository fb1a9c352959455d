package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

const validReasonerJSON = `{
  "risk_reasoning": "The system takes part in consequential hiring decisions.",
  "actions": [
    {
      "title": "Document the risk management process",
      "detail": "Produce and maintain lifecycle risk documentation.",
      "priority": "high",
      "effort": "high",
      "requirement_ids": ["art9-risk-management"]
    },
    {
      "title": "Audit training data for bias",
      "detail": "Run representativeness checks on the historical hiring data.",
      "priority": "critical",
      "effort": "medium",
      "requirement_ids": ["art10-data-governance"]
    }
  ]
}`

func narrateFixtures(t *testing.T) ([]domain.MatchedRequirement, []domain.RequirementRecord) {
	t.Helper()
	snap := testSnapshot(t)
	applicable := snap.Applicable(domain.TierHigh, []domain.ApplicationDomain{domain.DomainEmployment})
	matched := make([]domain.MatchedRequirement, 0, len(applicable))
	for _, rec := range applicable {
		matched = append(matched, domain.MatchedRequirement{Requirement: rec, Relevance: 0.8, Rationale: "test"})
	}
	return matched, applicable
}

func TestNarrativeReasonerParsesValidResponse(t *testing.T) {
	matched, applicable := narrateFixtures(t)
	service := &reasonerServiceFake{responses: []string{validReasonerJSON}}
	n := NewNarrativeReasoner(service, time.Second)

	out := n.Synthesize(context.Background(), highRiskHiringSystem(), matched, applicable)
	if out.Degraded {
		t.Fatal("unexpected degraded flag")
	}
	if service.calls != 1 {
		t.Fatalf("service called %d times, want 1", service.calls)
	}
	if len(out.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out.Candidates))
	}
	if out.RiskReasoning == "" {
		t.Fatal("risk reasoning was dropped")
	}
	for _, c := range out.Candidates {
		if c.source != domain.SourceReasoningService {
			t.Fatalf("candidate source = %s, want %s", c.source, domain.SourceReasoningService)
		}
	}
}

func TestNarrativeReasonerRetriesMalformedWithStrictPrompt(t *testing.T) {
	matched, applicable := narrateFixtures(t)
	service := &reasonerServiceFake{responses: []string{
		"Sure! Here are my thoughts on compliance, in free prose.",
		validReasonerJSON,
	}}
	n := NewNarrativeReasoner(service, time.Second)

	out := n.Synthesize(context.Background(), highRiskHiringSystem(), matched, applicable)
	if out.Degraded {
		t.Fatal("retry succeeded, report must not be degraded")
	}
	if service.calls != 2 {
		t.Fatalf("service called %d times, want 2", service.calls)
	}
	if len(service.prompts) == 2 && service.prompts[0] == service.prompts[1] {
		t.Fatal("retry must use a reformulated prompt")
	}
	if len(out.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out.Candidates))
	}
}

func TestNarrativeReasonerFallsBackAfterTwoMalformed(t *testing.T) {
	matched, applicable := narrateFixtures(t)
	service := &reasonerServiceFake{responses: []string{"not json", `{"actions": "still not right"}`}}
	n := NewNarrativeReasoner(service, time.Second)

	out := n.Synthesize(context.Background(), highRiskHiringSystem(), matched, applicable)
	if !out.Degraded {
		t.Fatal("expected degraded flag after two malformed responses")
	}
	if service.calls != 2 {
		t.Fatalf("service called %d times, want 2", service.calls)
	}
	if len(out.Candidates) == 0 {
		t.Fatal("fallback must still produce rule-derived candidates")
	}
	for _, c := range out.Candidates {
		if c.source != domain.SourceRuleBased {
			t.Fatalf("fallback candidate source = %s, want %s", c.source, domain.SourceRuleBased)
		}
	}
}

func TestNarrativeReasonerDoesNotRetryServiceErrors(t *testing.T) {
	matched, applicable := narrateFixtures(t)
	service := &reasonerServiceFake{errs: []error{errors.New("connection refused")}}
	n := NewNarrativeReasoner(service, time.Second)

	out := n.Synthesize(context.Background(), highRiskHiringSystem(), matched, applicable)
	if !out.Degraded {
		t.Fatal("expected degraded flag after service failure")
	}
	if service.calls != 1 {
		t.Fatalf("service called %d times, want 1; reformulation cannot fix an unavailable service", service.calls)
	}
}

func TestParseReasonerResponseValidation(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		malformed bool
		want      int
	}{
		{
			name:      "missing actions key",
			raw:       `{"risk_reasoning": "fine"}`,
			malformed: true,
		},
		{
			name: "empty actions is a valid empty plan",
			raw:  `{"risk_reasoning": "nothing to do", "actions": []}`,
			want: 0,
		},
		{
			name: "action without requirement ids is discarded",
			raw:  `{"actions": [{"title": "Do something", "priority": "high", "requirement_ids": []}]}`,
			want: 0,
		},
		{
			name: "action with unknown priority is discarded",
			raw:  `{"actions": [{"title": "Do something", "priority": "urgent!!", "requirement_ids": ["art9-risk-management"]}]}`,
			want: 0,
		},
		{
			name: "json wrapped in prose is recovered",
			raw:  "Here you go:\n" + validReasonerJSON + "\nHope that helps!",
			want: 2,
		},
		{
			name: "duplicate requirement ids are collapsed",
			raw:  `{"actions": [{"title": "Oversee", "priority": "medium", "requirement_ids": ["art14-human-oversight", "ART14-HUMAN-OVERSIGHT"]}]}`,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parse := parseReasonerResponse(tt.raw)
			if parse.malformed != tt.malformed {
				t.Fatalf("malformed = %v, want %v", parse.malformed, tt.malformed)
			}
			if tt.malformed {
				return
			}
			if len(parse.candidates) != tt.want {
				t.Fatalf("got %d candidates, want %d", len(parse.candidates), tt.want)
			}
			for _, c := range parse.candidates {
				if len(c.requirementIDs) != len(normalizeIDs(c.requirementIDs)) {
					t.Fatalf("candidate ids not normalized: %v", c.requirementIDs)
				}
			}
		})
	}
}
