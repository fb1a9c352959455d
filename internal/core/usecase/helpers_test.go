package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

var testCatalogRecords = []domain.RequirementRecord{
	{
		ID:          "art5-social-scoring",
		Tier:        domain.TierUnacceptable,
		Article:     "Article 5(1)(c)",
		Title:       "Prohibition of social scoring",
		Obligation:  "AI systems for social scoring of natural persons by public authorities are prohibited.",
		Keywords:    []string{"social scoring", "social credit"},
		Severity:    1.0,
		Effort:      domain.EffortHigh,
		Prohibition: true,
	},
	{
		ID:          "art5-biometric-id",
		Tier:        domain.TierUnacceptable,
		Article:     "Article 5(1)(h)",
		Title:       "Prohibition of real-time remote biometric identification",
		Obligation:  "Real-time remote biometric identification in publicly accessible spaces is prohibited.",
		Keywords:    []string{"biometric identification", "public space"},
		Severity:    1.0,
		Effort:      domain.EffortHigh,
		Prohibition: true,
	},
	{
		ID:         "art9-risk-management",
		Tier:       domain.TierHigh,
		Article:    "Article 9",
		Title:      "Risk management system",
		Obligation: "Establish, implement, document and maintain a risk management system.",
		Keywords:   []string{"risk management", "lifecycle"},
		Severity:   0.9,
		Effort:     domain.EffortHigh,
	},
	{
		ID:         "art10-data-governance",
		Tier:       domain.TierHigh,
		Article:    "Article 10",
		Title:      "Data and data governance",
		Obligation: "Training, validation and testing data sets shall meet quality criteria.",
		Keywords:   []string{"training data", "data governance", "bias"},
		Severity:   0.85,
		Effort:     domain.EffortHigh,
	},
	{
		ID:         "art14-human-oversight",
		Tier:       domain.TierHigh,
		Article:    "Article 14",
		Title:      "Human oversight",
		Obligation: "High-risk AI systems shall be designed to be effectively overseen by natural persons.",
		Keywords:   []string{"human oversight", "override"},
		Severity:   0.8,
		Effort:     domain.EffortMedium,
	},
	{
		ID:         "art13-employment-transparency",
		Tier:       domain.TierHigh,
		Article:    "Article 13",
		Title:      "Transparency towards deployers",
		Obligation: "Instructions for use shall enable deployers to interpret system output.",
		Domains:    []domain.ApplicationDomain{domain.DomainEmployment},
		Keywords:   []string{"transparency", "instructions", "employment"},
		Severity:   0.75,
		Effort:     domain.EffortMedium,
	},
	{
		ID:         "art50-disclosure",
		Tier:       domain.TierLimited,
		Article:    "Article 50",
		Title:      "Disclosure of AI interaction",
		Obligation: "Persons interacting with an AI system shall be informed they are interacting with AI.",
		Keywords:   []string{"chatbot", "disclosure", "interaction"},
		Severity:   0.5,
		Effort:     domain.EffortLow,
	},
	{
		ID:         "gdpr-data-protection",
		General:    true,
		Article:    "GDPR Articles 5 and 22",
		Title:      "Personal data protection",
		Obligation: "Processing of personal data shall comply with GDPR principles and safeguard automated decisions.",
		Keywords:   []string{"personal data", "gdpr", "automated decision"},
		Severity:   0.6,
		Effort:     domain.EffortMedium,
	},
}

func testSnapshot(t *testing.T) *domain.CatalogSnapshot {
	t.Helper()
	snap, err := domain.NewCatalogSnapshot("test-v1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), testCatalogRecords)
	if err != nil {
		t.Fatalf("build catalog snapshot: %v", err)
	}
	return snap
}

type retrieverFake struct {
	hits    []domain.RetrievalHit
	err     error
	queries []string
}

func (f *retrieverFake) Query(_ context.Context, text string, _ []domain.ApplicationDomain, _ int) ([]domain.RetrievalHit, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type reasonerServiceFake struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *reasonerServiceFake) Complete(_ context.Context, prompt, _ string) (string, error) {
	idx := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", nil
}

type catalogFake struct {
	snapshot *domain.CatalogSnapshot
	err      error
}

func (f *catalogFake) Active() (*domain.CatalogSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *catalogFake) Swap(snapshot *domain.CatalogSnapshot) { f.snapshot = snapshot }

type clockFake struct{ now time.Time }

func (f clockFake) Now() time.Time { return f.now }
