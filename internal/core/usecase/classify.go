package usecase

import (
	"strings"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

// tierRule is one entry of the priority-ordered decision list. Rules
// are evaluated strictest tier first and the first match wins: tiers
// are not mutually exclusive in raw feature space, and the Act's most
// restrictive applicable category governs. A description matching both
// a prohibition and a chatbot rule therefore classifies Unacceptable,
// never errors.
type tierRule struct {
	name  string
	tier  domain.RiskTier
	match func(sys domain.SystemDescription, text string) bool
}

var highRiskDomains = map[domain.ApplicationDomain]bool{
	domain.DomainCriticalInfrastructure: true,
	domain.DomainEducation:              true,
	domain.DomainEmployment:             true,
	domain.DomainEssentialServices:      true,
	domain.DomainLawEnforcement:         true,
	domain.DomainMigrationAsylum:        true,
	domain.DomainJusticeDemocracy:       true,
}

var (
	socialScoringKeywords = []string{"social scoring", "social credit"}
	subliminalKeywords    = []string{"subliminal", "manipulation technique"}
	publicBiometricKeywords = []string{
		"real-time biometric identification",
		"real time biometric identification",
		"public space surveillance",
	}
	decisionKeywords = []string{"decision", "approval", "rejection", "assessment", "scoring", "screening"}
	chatbotKeywords  = []string{"chatbot", "conversational ai", "virtual assistant"}
	syntheticContentKeywords = []string{"generated content", "deepfake", "synthetic media"}
)

var tierRules = []tierRule{
	{
		name: "social-scoring",
		tier: domain.TierUnacceptable,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.SocialScoring || containsAny(text, socialScoringKeywords)
		},
	},
	{
		name: "public-realtime-biometric-id",
		tier: domain.TierUnacceptable,
		match: func(sys domain.SystemDescription, text string) bool {
			inPublic := sys.DeploymentContext == domain.DeployPublicSpace
			if inPublic && (sys.Features.RealTimeBiometricID || sys.Domain == domain.DomainBiometricIdentification) {
				return true
			}
			return containsAny(text, publicBiometricKeywords)
		},
	},
	{
		name: "subliminal-manipulation",
		tier: domain.TierUnacceptable,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.SubliminalManipulation || containsAny(text, subliminalKeywords)
		},
	},
	{
		name: "emotion-recognition-workplace-education",
		tier: domain.TierUnacceptable,
		match: func(sys domain.SystemDescription, text string) bool {
			sensitiveContext := sys.DeploymentContext == domain.DeployWorkplace ||
				sys.DeploymentContext == domain.DeployEducational
			if sys.Features.EmotionRecognition && sensitiveContext {
				return true
			}
			return containsAny(text, []string{"emotion recognition workplace", "emotion recognition education"})
		},
	},
	{
		name: "safety-component",
		tier: domain.TierHigh,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.SafetyComponent || sys.DeploymentContext == domain.DeploySafetyCritical
		},
	},
	{
		name: "high-risk-domain",
		tier: domain.TierHigh,
		match: func(sys domain.SystemDescription, _ string) bool {
			for _, d := range sys.Domains() {
				if highRiskDomains[d] {
					return true
				}
			}
			return false
		},
	},
	{
		// Healthcare and finance are high risk when the system takes
		// part in consequential decisions, limited otherwise.
		name: "regulated-domain-decisions",
		tier: domain.TierHigh,
		match: func(sys domain.SystemDescription, text string) bool {
			regulated := sys.Domain == domain.DomainHealthcare || sys.Domain == domain.DomainFinance
			if !regulated {
				return false
			}
			return sys.Features.AutomatedDecisions || containsAny(text, decisionKeywords)
		},
	},
	{
		name: "conversational-interface",
		tier: domain.TierLimited,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.ConversationalInterface || containsAny(text, chatbotKeywords)
		},
	},
	{
		name: "emotion-recognition",
		tier: domain.TierLimited,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.EmotionRecognition || strings.Contains(text, "emotion recognition")
		},
	},
	{
		name: "biometric-categorization",
		tier: domain.TierLimited,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.BiometricCategorization || strings.Contains(text, "biometric categorization")
		},
	},
	{
		name: "synthetic-content-disclosure",
		tier: domain.TierLimited,
		match: func(sys domain.SystemDescription, text string) bool {
			return sys.Features.GeneratesContent || containsAny(text, syntheticContentKeywords)
		},
	},
	{
		name: "regulated-domain-default",
		tier: domain.TierLimited,
		match: func(sys domain.SystemDescription, _ string) bool {
			return sys.Domain == domain.DomainHealthcare || sys.Domain == domain.DomainFinance
		},
	},
}

// ClassifyRisk maps a system description to its EU AI Act risk tier.
// Pure function over the declared domain, deployment context, feature
// flags and description text; never calls external services, always
// terminates, deterministic. No matching rule falls through to
// Minimal.
func ClassifyRisk(sys domain.SystemDescription) domain.RiskTier {
	tier, _ := classifyRisk(sys)
	return tier
}

func classifyRisk(sys domain.SystemDescription) (domain.RiskTier, string) {
	text := strings.ToLower(sys.Description)
	for _, rule := range tierRules {
		if rule.match(sys, text) {
			return rule.tier, rule.name
		}
	}
	return domain.TierMinimal, "default-minimal"
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
