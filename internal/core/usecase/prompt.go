package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

const assessmentSchemaHint = `{"risk_reasoning": string, "actions": [{"title": string, "detail": string, "priority": "critical|high|medium|low", "effort": "low|medium|high", "requirement_ids": [string]}]}`

func buildAssessmentPrompt(sys domain.SystemDescription, matched []domain.MatchedRequirement) string {
	return fmt.Sprintf(`You are an EU AI Act compliance analyst.
Assess the AI system below against the cited requirements and propose remediation actions.
Return a strict JSON object with keys:
risk_reasoning (string), actions (array of {title, detail, priority, effort, requirement_ids}).
priority is one of critical|high|medium|low. effort is one of low|medium|high.
Every action must reference at least one requirement_id from the citations. No markdown, no extra keys.

System:
%s

Citations:
%s`, describeSystem(sys), citeRequirements(matched))
}

// buildStrictAssessmentPrompt is the single-retry reformulation used
// after a malformed response.
func buildStrictAssessmentPrompt(sys domain.SystemDescription, matched []domain.MatchedRequirement) string {
	return fmt.Sprintf(`Respond with ONLY a JSON object. No prose before or after it.
The object has exactly two keys:
"risk_reasoning": a string.
"actions": an array. Each element has exactly these keys: "title" (string), "detail" (string), "priority" (one of "critical","high","medium","low"), "effort" (one of "low","medium","high"), "requirement_ids" (non-empty array of strings drawn from the citation ids below).
Omit any action you cannot tie to a citation id.

System:
%s

Citation ids:
%s`, describeSystem(sys), citationIDs(matched))
}

func describeSystem(sys domain.SystemDescription) string {
	const maxSnippet = 4000
	snippet := sys.Description
	if len(snippet) > maxSnippet {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}

	dataTypes := make([]string, 0, len(sys.DataTypes))
	for _, dt := range sys.DataTypes {
		dataTypes = append(dataTypes, string(dt))
	}

	return fmt.Sprintf("name=%s domain=%s deployment=%s data_types=%s\n%s",
		sys.Name, sys.Domain, sys.DeploymentContext, strings.Join(dataTypes, ","), snippet)
}

func citeRequirements(matched []domain.MatchedRequirement) string {
	if len(matched) == 0 {
		return "(none retrieved)"
	}
	var b strings.Builder
	for idx, m := range matched {
		fmt.Fprintf(&b, "[%d] id=%s article=%s severity=%.2f\n%s\n\n",
			idx+1, m.Requirement.ID, m.Requirement.Article, m.Requirement.Severity, m.Requirement.Obligation)
	}
	return b.String()
}

func citationIDs(matched []domain.MatchedRequirement) string {
	if len(matched) == 0 {
		return "(none)"
	}
	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.Requirement.ID)
	}
	return strings.Join(ids, ", ")
}
