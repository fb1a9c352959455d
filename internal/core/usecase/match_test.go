package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

func highRiskHiringSystem() domain.SystemDescription {
	sys := validSystem("cv ranker", domain.DomainEmployment)
	sys.Description = "Ranks incoming job applications for recruiters using historical hiring data."
	return sys
}

func TestMatchReturnsOnlyClassifiedTierRequirements(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{hits: []domain.RetrievalHit{
		{RequirementID: "art9-risk-management", Relevance: 0.9},
		{RequirementID: "art5-social-scoring", Relevance: 0.95}, // prohibition, must be dropped
		{RequirementID: "art50-disclosure", Relevance: 0.4},     // limited-tier, must be dropped
		{RequirementID: "gdpr-data-protection", Relevance: 0.5}, // general, applies
	}}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	matched, degraded := m.Match(context.Background(), snap, highRiskHiringSystem(), domain.TierHigh)
	if degraded {
		t.Fatal("unexpected degraded flag")
	}
	got := make(map[string]bool, len(matched))
	for _, mr := range matched {
		got[mr.Requirement.ID] = true
	}
	if got["art5-social-scoring"] {
		t.Fatal("prohibition clause returned for a high classification")
	}
	if got["art50-disclosure"] {
		t.Fatal("limited-tier requirement returned for a high classification")
	}
	if !got["art9-risk-management"] || !got["gdpr-data-protection"] || len(matched) != 2 {
		t.Fatalf("matched = %v, want exactly the high-tier record and the general record", got)
	}
}

// Every output element must come from exactly the classified tier or
// be a general cross-cutting record; in particular, no requirement
// from a less strict tier may ever surface.
func TestMatchTierFilterIsMonotonic(t *testing.T) {
	snap := testSnapshot(t)
	allHits := make([]domain.RetrievalHit, 0, snap.Len())
	for _, rec := range snap.Records() {
		allHits = append(allHits, domain.RetrievalHit{RequirementID: rec.ID, Relevance: 0.9})
	}

	for _, tier := range []domain.RiskTier{domain.TierHigh, domain.TierLimited, domain.TierMinimal} {
		m := NewRequirementMatcher(&retrieverFake{hits: allHits}, len(allHits), time.Second)
		matched, _ := m.Match(context.Background(), snap, highRiskHiringSystem(), tier)
		for _, got := range matched {
			if got.Requirement.General {
				continue
			}
			if got.Requirement.Tier.Strictness() < tier.Strictness() {
				t.Fatalf("less-strict tier %s requirement %s returned for %s classification",
					got.Requirement.Tier, got.Requirement.ID, tier)
			}
			if got.Requirement.Tier != tier {
				t.Fatalf("%s classification returned %s-tier requirement %s",
					tier, got.Requirement.Tier, got.Requirement.ID)
			}
		}
		if tier == domain.TierMinimal && len(matched) != 0 {
			t.Fatalf("minimal classification matched %d requirements, want none", len(matched))
		}
	}
}

func TestMatchLimitedTierExcludesHighRequirements(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{hits: []domain.RetrievalHit{
		{RequirementID: "art9-risk-management", Relevance: 0.9},
		{RequirementID: "art50-disclosure", Relevance: 0.7},
	}}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	sys := validSystem("support bot", domain.DomainGeneralPurpose)
	matched, _ := m.Match(context.Background(), snap, sys, domain.TierLimited)

	if len(matched) != 1 || matched[0].Requirement.ID != "art50-disclosure" {
		t.Fatalf("matched = %+v, want only art50-disclosure", matched)
	}
}

func TestMatchRankingIsDeterministic(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{hits: []domain.RetrievalHit{
		{RequirementID: "art14-human-oversight", Relevance: 0.8},
		{RequirementID: "art10-data-governance", Relevance: 0.8},
		{RequirementID: "art9-risk-management", Relevance: 0.95},
	}}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	matched, _ := m.Match(context.Background(), snap, highRiskHiringSystem(), domain.TierHigh)

	want := []string{"art9-risk-management", "art10-data-governance", "art14-human-oversight"}
	if len(matched) != len(want) {
		t.Fatalf("matched %d requirements, want %d", len(matched), len(want))
	}
	for i, id := range want {
		if matched[i].Requirement.ID != id {
			t.Fatalf("position %d: got %s, want %s", i, matched[i].Requirement.ID, id)
		}
	}
}

func TestMatchDomainScopedRequirement(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{hits: []domain.RetrievalHit{
		{RequirementID: "art13-employment-transparency", Relevance: 0.9},
	}}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	// Employment-scoped record applies to the hiring system...
	matched, _ := m.Match(context.Background(), snap, highRiskHiringSystem(), domain.TierHigh)
	if len(matched) != 1 {
		t.Fatalf("employment system: matched %d, want 1", len(matched))
	}

	// ...but not to a safety system outside that domain.
	sys := validSystem("brake assist", domain.DomainTransport)
	matched, _ = m.Match(context.Background(), snap, sys, domain.TierHigh)
	if len(matched) != 0 {
		t.Fatalf("transport system: matched %d, want 0", len(matched))
	}
}

func TestMatchDegradesOnRetrievalFailure(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{err: errors.New("retrieval backend down")}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	matched, degraded := m.Match(context.Background(), snap, highRiskHiringSystem(), domain.TierHigh)
	if !degraded {
		t.Fatal("expected degraded flag after retrieval failure")
	}
	if len(matched) != 0 {
		t.Fatalf("matched %d requirements, want none", len(matched))
	}
}

func TestMatchUnacceptableReturnsOnlyProhibitions(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{hits: []domain.RetrievalHit{
		{RequirementID: "art9-risk-management", Relevance: 0.9},
	}}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	sys := validSystem("citizen score", domain.DomainOther)
	sys.Features.SocialScoring = true

	matched, degraded := m.Match(context.Background(), snap, sys, domain.TierUnacceptable)
	if degraded {
		t.Fatal("unexpected degraded flag")
	}
	if len(retriever.queries) != 0 {
		t.Fatal("retrieval service must not be queried for prohibited systems")
	}
	if len(matched) == 0 {
		t.Fatal("expected prohibition clauses")
	}
	for _, m := range matched {
		if !m.Requirement.Prohibition {
			t.Fatalf("non-prohibition record %s in unacceptable match set", m.Requirement.ID)
		}
		if m.Relevance != 1.0 {
			t.Fatalf("prohibition relevance = %v, want 1.0", m.Relevance)
		}
	}
}

func TestMatchClampsRelevance(t *testing.T) {
	snap := testSnapshot(t)
	retriever := &retrieverFake{hits: []domain.RetrievalHit{
		{RequirementID: "art9-risk-management", Relevance: 1.7},
		{RequirementID: "art10-data-governance", Relevance: -0.3},
	}}
	m := NewRequirementMatcher(retriever, 10, time.Second)

	matched, _ := m.Match(context.Background(), snap, highRiskHiringSystem(), domain.TierHigh)
	for _, got := range matched {
		if got.Relevance < 0 || got.Relevance > 1 {
			t.Fatalf("relevance %v outside [0,1]", got.Relevance)
		}
	}
}
