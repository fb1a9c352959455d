package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
)

// NarrativeReasoner adapts the natural-language reasoning service into
// recommendation candidates. The service is untrusted, latent and
// occasionally malformed, so every failure path here resolves to a
// (possibly empty) candidate list plus a degraded flag. This adapter
// never returns an error.
type NarrativeReasoner struct {
	service ports.ReasoningService
	timeout time.Duration
}

func NewNarrativeReasoner(service ports.ReasoningService, timeout time.Duration) *NarrativeReasoner {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &NarrativeReasoner{service: service, timeout: timeout}
}

// ReasonerOutput carries the validated candidates plus the free-text
// risk reasoning, when the service produced usable structure.
type ReasonerOutput struct {
	Candidates    []recommendationCandidate
	RiskReasoning string
	Degraded      bool
}

// Synthesize requests a narrative assessment and parses it. On parse
// failure it retries once with a stricter reformulation; on second
// failure it falls back to rule-derived template candidates for every
// unmet applicable requirement and flags degraded mode.
func (n *NarrativeReasoner) Synthesize(
	ctx context.Context,
	sys domain.SystemDescription,
	matched []domain.MatchedRequirement,
	applicable []domain.RequirementRecord,
) ReasonerOutput {
	prompts := []string{
		buildAssessmentPrompt(sys, matched),
		buildStrictAssessmentPrompt(sys, matched),
	}

	for attempt, prompt := range prompts {
		result, err := n.complete(ctx, prompt)
		if err != nil {
			slog.Warn("reasoning_service_unavailable", "attempt", attempt+1, "error", err)
			break
		}
		parse := parseReasonerResponse(result)
		if parse.malformed {
			slog.Warn("reasoning_response_malformed", "attempt", attempt+1, "raw_len", len(result))
			continue
		}
		return ReasonerOutput{
			Candidates:    parse.candidates,
			RiskReasoning: parse.riskReasoning,
		}
	}

	return ReasonerOutput{
		Candidates: fallbackCandidates(applicable, matched),
		Degraded:   true,
	}
}

func (n *NarrativeReasoner) complete(ctx context.Context, prompt string) (string, error) {
	if n.service == nil {
		return "", errors.New("reasoning service not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.service.Complete(callCtx, prompt, assessmentSchemaHint)
}

// reasonerParse is the boundary validation result for the untrusted
// payload: either usable candidates or a malformed marker with the raw
// text retained for logging.
type reasonerParse struct {
	candidates    []recommendationCandidate
	riskReasoning string
	malformed     bool
	raw           string
}

type reasonerAction struct {
	Title          string   `json:"title"`
	Detail         string   `json:"detail"`
	Priority       string   `json:"priority"`
	Effort         string   `json:"effort"`
	RequirementIDs []string `json:"requirement_ids"`
}

type reasonerResponse struct {
	RiskReasoning string            `json:"risk_reasoning"`
	Actions       *[]reasonerAction `json:"actions"`
}

func parseReasonerResponse(raw string) reasonerParse {
	var resp reasonerResponse
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &resp); err != nil {
		return reasonerParse{malformed: true, raw: raw}
	}
	// A missing actions key means the expected structure is absent,
	// which is distinct from an explicitly empty plan.
	if resp.Actions == nil {
		return reasonerParse{malformed: true, raw: raw}
	}

	candidates := make([]recommendationCandidate, 0, len(*resp.Actions))
	for _, action := range *resp.Actions {
		signal, ok := prioritySignal(action.Priority)
		// Unverifiable free text must not silently enter the action
		// plan: candidates need both a linked requirement and a
		// priority signal.
		if !ok || len(action.RequirementIDs) == 0 || strings.TrimSpace(action.Title) == "" {
			continue
		}
		candidates = append(candidates, recommendationCandidate{
			title:          strings.TrimSpace(action.Title),
			detail:         strings.TrimSpace(action.Detail),
			signal:         signal,
			effort:         parseEffort(action.Effort),
			source:         domain.SourceReasoningService,
			requirementIDs: normalizeIDs(action.RequirementIDs),
		})
	}
	return reasonerParse{
		candidates:    candidates,
		riskReasoning: strings.TrimSpace(resp.RiskReasoning),
	}
}

// fallbackCandidates derives one templated recommendation per
// identified obligation: every matched requirement plus any applicable
// record retrieval missed. Requires no external service, so it is
// always available as the rule-based baseline.
func fallbackCandidates(applicable []domain.RequirementRecord, matched []domain.MatchedRequirement) []recommendationCandidate {
	out := make([]recommendationCandidate, 0, len(applicable)+len(matched))
	covered := make(map[string]bool, len(matched))
	for _, m := range matched {
		covered[m.Requirement.ID] = true
		out = append(out, templateCandidate(m.Requirement))
	}
	for _, rec := range applicable {
		if covered[rec.ID] {
			continue
		}
		out = append(out, templateCandidate(rec))
	}
	return out
}

func templateCandidate(rec domain.RequirementRecord) recommendationCandidate {
	return recommendationCandidate{
		title:          fmt.Sprintf("Address %s (%s)", rec.Title, rec.Article),
		detail:         fmt.Sprintf("The system does not yet demonstrate coverage of %s: %s", rec.Article, rec.Obligation),
		signal:         signalFromSeverity(rec.Severity),
		effort:         effortOrDefault(rec.Effort),
		source:         domain.SourceRuleBased,
		requirementIDs: []string{rec.ID},
	}
}

func prioritySignal(priority string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "critical":
		return 0, true
	case "high":
		return 1, true
	case "medium":
		return 2, true
	case "low":
		return 3, true
	default:
		return 0, false
	}
}

func signalFromSeverity(severity float64) int {
	switch {
	case severity >= 0.9:
		return 0
	case severity >= 0.7:
		return 1
	case severity >= 0.4:
		return 2
	default:
		return 3
	}
}

func parseEffort(effort string) domain.EffortLevel {
	switch strings.ToLower(strings.TrimSpace(effort)) {
	case "low":
		return domain.EffortLow
	case "high":
		return domain.EffortHigh
	default:
		return domain.EffortMedium
	}
}

func effortOrDefault(effort domain.EffortLevel) domain.EffortLevel {
	switch effort {
	case domain.EffortLow, domain.EffortMedium, domain.EffortHigh:
		return effort
	default:
		return domain.EffortMedium
	}
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(strings.ToLower(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
