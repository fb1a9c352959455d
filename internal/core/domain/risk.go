package domain

import "fmt"

// RiskTier is one of the four EU AI Act risk classifications,
// totally ordered by strictness.
type RiskTier string

const (
	TierUnacceptable RiskTier = "unacceptable"
	TierHigh         RiskTier = "high"
	TierLimited      RiskTier = "limited"
	TierMinimal      RiskTier = "minimal"
)

// Strictness returns the position of the tier in the strictness order:
// Unacceptable > High > Limited > Minimal.
func (t RiskTier) Strictness() int {
	switch t {
	case TierUnacceptable:
		return 3
	case TierHigh:
		return 2
	case TierLimited:
		return 1
	case TierMinimal:
		return 0
	default:
		return -1
	}
}

func (t RiskTier) Valid() bool {
	return t.Strictness() >= 0
}

func ParseRiskTier(s string) (RiskTier, error) {
	t := RiskTier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown risk tier: %q", s)
	}
	return t, nil
}

// RiskTiers lists all tiers from strictest to most lenient.
func RiskTiers() []RiskTier {
	return []RiskTier{TierUnacceptable, TierHigh, TierLimited, TierMinimal}
}

// TierProfile is the human-facing description of a tier, served by the
// listing endpoints.
type TierProfile struct {
	Tier     RiskTier `json:"tier"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Examples []string `json:"examples"`
}

func TierProfiles() []TierProfile {
	return []TierProfile{
		{
			Tier:    TierUnacceptable,
			Title:   "Unacceptable Risk",
			Summary: "AI practices that are prohibited under the EU AI Act",
			Examples: []string{
				"Social scoring systems",
				"Real-time biometric identification in public spaces",
				"Emotion recognition in workplace or education",
				"Subliminal manipulation techniques",
			},
		},
		{
			Tier:    TierHigh,
			Title:   "High Risk",
			Summary: "AI systems subject to strict compliance requirements",
			Examples: []string{
				"Safety components in critical infrastructure",
				"Educational assessment systems",
				"Employment decision systems",
				"Essential service access systems",
				"Law enforcement applications",
			},
		},
		{
			Tier:    TierLimited,
			Title:   "Limited Risk",
			Summary: "AI systems with transparency obligations",
			Examples: []string{
				"Chatbots and conversational AI",
				"Emotion recognition systems",
				"Biometric categorization",
				"AI-generated content",
			},
		},
		{
			Tier:    TierMinimal,
			Title:   "Minimal Risk",
			Summary: "AI systems with no specific obligations under the EU AI Act",
			Examples: []string{
				"AI-enabled video games",
				"Spam filters",
				"Inventory management systems",
			},
		},
	}
}
