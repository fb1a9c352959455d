package usecase

import (
	"fmt"
	"strings"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

const (
	maxKeyRisks         = 5
	maxImmediateActions = 5

	// urgentSeverity is the severity band treated as critical/high
	// priority for timeline and action extraction.
	urgentSeverity = 0.7
)

func buildExecutiveSummary(
	sys domain.SystemDescription,
	tier domain.RiskTier,
	matched []domain.MatchedRequirement,
	recs []domain.Recommendation,
	severity map[string]float64,
	riskReasoning string,
) string {
	urgent := countUrgent(recs, severity)

	var b strings.Builder
	fmt.Fprintf(&b, "The AI system %q has been classified as %s risk under the EU AI Act.\n\n",
		sys.Name, strings.ToUpper(string(tier)))

	fmt.Fprintf(&b, "COMPLIANCE STATUS:\n- %d applicable requirements identified\n- %d remediation actions recommended\n- %d high-priority actions\n\n",
		len(matched), len(recs), urgent)

	b.WriteString("KEY FINDINGS:\n")
	fmt.Fprintf(&b, "The system operates in the %s domain, which carries specific regulatory obligations.\n",
		strings.ReplaceAll(string(sys.Domain), "_", " "))
	switch {
	case tier == domain.TierUnacceptable:
		b.WriteString("The described practice is prohibited; deployment in its current form is not permitted.\n")
	case urgent > 0:
		b.WriteString("Immediate action is required to address compliance gaps before deployment.\n")
	default:
		b.WriteString("The system shows promise for compliance but requires formal assessment and documentation.\n")
	}
	if riskReasoning != "" {
		b.WriteString(riskReasoning)
		b.WriteString("\n")
	}

	b.WriteString("\nNEXT STEPS:\n")
	if tier == domain.TierUnacceptable {
		b.WriteString("Redesign or withdraw the prohibited capability before any further compliance work.")
	} else {
		fmt.Fprintf(&b, "Focus on high-priority recommendations first. Estimated timeline for achieving compliance: %s.",
			estimateComplianceTime(recs, severity))
	}
	return b.String()
}

// keyRisks lists the most severe matched requirements as human-readable
// findings, strongest first. Matched requirements arrive pre-sorted.
func keyRisks(matched []domain.MatchedRequirement) []string {
	risks := make([]string, 0, maxKeyRisks)
	for _, m := range matched {
		if len(risks) == maxKeyRisks {
			break
		}
		risks = append(risks, fmt.Sprintf("%s: %s", m.Requirement.Title, m.Rationale))
	}
	return risks
}

func immediateActions(recs []domain.Recommendation, severity map[string]float64) []string {
	actions := make([]string, 0, maxImmediateActions)
	for _, rec := range recs {
		if len(actions) == maxImmediateActions {
			break
		}
		if isUrgent(rec, severity) {
			actions = append(actions, rec.Title)
		}
	}
	return actions
}

func estimateComplianceTime(recs []domain.Recommendation, severity map[string]float64) string {
	if len(recs) == 0 {
		return "1-2 weeks"
	}
	switch urgent := countUrgent(recs, severity); {
	case urgent >= 5:
		return "3-6 months"
	case urgent >= 3:
		return "6-12 weeks"
	default:
		return "2-6 weeks"
	}
}

func confidenceLevel(degraded bool) string {
	if degraded {
		return "low"
	}
	return "medium"
}

func countUrgent(recs []domain.Recommendation, severity map[string]float64) int {
	n := 0
	for _, rec := range recs {
		if isUrgent(rec, severity) {
			n++
		}
	}
	return n
}

func isUrgent(rec domain.Recommendation, severity map[string]float64) bool {
	for _, id := range rec.RequirementIDs {
		if severity[id] >= urgentSeverity {
			return true
		}
	}
	return false
}
