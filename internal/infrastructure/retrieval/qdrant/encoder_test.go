package qdrant

import (
	"testing"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

func TestEncodeRequirementBoostsKeywords(t *testing.T) {
	rec := domain.RequirementRecord{
		ID:         "art9-risk-management",
		Title:      "Risk management system",
		Obligation: "Maintain a documented process.",
		Keywords:   []string{"lifecycle"},
	}
	vec := encodeRequirement(rec)
	if len(vec.Indices) == 0 {
		t.Fatal("empty vector")
	}
	if len(vec.Indices) != len(vec.Values) {
		t.Fatalf("indices/values length mismatch: %d vs %d", len(vec.Indices), len(vec.Values))
	}

	keywordScore := dotProduct(encodeQuery("lifecycle"), vec)
	bodyScore := dotProduct(encodeQuery("documented"), vec)
	if keywordScore <= bodyScore {
		t.Fatalf("keyword term scored %v, body term %v; keywords must dominate", keywordScore, bodyScore)
	}
}

func TestEncodeIndicesSortedAndBounded(t *testing.T) {
	long := ""
	for i := 0; i < 600; i++ {
		long += " token" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+i%7))
	}
	vec := encodeRequirement(domain.RequirementRecord{Obligation: long})
	if len(vec.Indices) > maxSparseTerms {
		t.Fatalf("vector has %d terms, cap is %d", len(vec.Indices), maxSparseTerms)
	}
	for i := 1; i < len(vec.Indices); i++ {
		if vec.Indices[i] <= vec.Indices[i-1] {
			t.Fatalf("indices not strictly ascending at %d", i)
		}
	}
}

func TestDotProductDisjointIsZero(t *testing.T) {
	a := encodeQuery("alpha beta")
	b := encodeQuery("gamma delta")
	if got := dotProduct(a, b); got != 0 {
		t.Fatalf("disjoint vectors scored %v, want 0", got)
	}
}

func TestTokenizeAlphaNum(t *testing.T) {
	got := tokenizeAlphaNum("Real-Time Biometric ID, v2!")
	want := []string{"real", "time", "biometric", "id", "v2"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
