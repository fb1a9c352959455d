package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
)

// RequirementMatcher resolves the requirements applicable to a
// classified system by querying the knowledge retrieval service and
// filtering candidates against the assigned tier.
type RequirementMatcher struct {
	retriever ports.RequirementRetriever
	topK      int
	timeout   time.Duration
}

func NewRequirementMatcher(retriever ports.RequirementRetriever, topK int, timeout time.Duration) *RequirementMatcher {
	if topK <= 0 {
		topK = 10
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RequirementMatcher{
		retriever: retriever,
		topK:      topK,
		timeout:   timeout,
	}
}

// Match returns the ranked matched requirements for the classified
// tier, and whether retrieval degraded. A retrieval failure or timeout
// yields an empty match list with degraded=true, never an error:
// partial results beat no results for an advisory tool.
func (m *RequirementMatcher) Match(
	ctx context.Context,
	snapshot *domain.CatalogSnapshot,
	sys domain.SystemDescription,
	tier domain.RiskTier,
) ([]domain.MatchedRequirement, bool) {
	// An Unacceptable classification is terminal: only the prohibition
	// clauses are returned, no remediation-oriented requirements.
	if tier == domain.TierUnacceptable {
		return prohibitionMatches(snapshot, sys), false
	}

	query := buildFeatureQuery(sys)

	queryCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	hits, err := m.retriever.Query(queryCtx, query, sys.Domains(), m.topK)
	if err != nil {
		slog.Warn("requirement_retrieval_degraded", "error", err, "tier", string(tier))
		return nil, true
	}

	matched := make([]domain.MatchedRequirement, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		rec, ok := snapshot.ByID(hit.RequirementID)
		if !ok || seen[rec.ID] {
			continue
		}
		// Tier filter: only the classification's own obligations and
		// the general cross-cutting ones apply. Prohibitions never
		// reach a non-prohibited system, and minimal-risk systems
		// carry no obligations at all.
		if rec.Prohibition || rec.Tier == domain.TierUnacceptable {
			continue
		}
		if rec.General {
			if tier == domain.TierMinimal {
				continue
			}
		} else if rec.Tier != tier {
			continue
		}
		if !rec.AppliesToDomain(sys.Domains()) {
			continue
		}
		seen[rec.ID] = true
		matched = append(matched, domain.MatchedRequirement{
			Requirement: rec,
			Relevance:   clamp01(hit.Relevance),
			Rationale:   matchRationale(query, rec),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Relevance != matched[j].Relevance {
			return matched[i].Relevance > matched[j].Relevance
		}
		if matched[i].Requirement.Severity != matched[j].Requirement.Severity {
			return matched[i].Requirement.Severity > matched[j].Requirement.Severity
		}
		return matched[i].Requirement.ID < matched[j].Requirement.ID
	})

	return matched, false
}

func prohibitionMatches(snapshot *domain.CatalogSnapshot, sys domain.SystemDescription) []domain.MatchedRequirement {
	clauses := snapshot.Applicable(domain.TierUnacceptable, sys.Domains())
	out := make([]domain.MatchedRequirement, 0, len(clauses))
	for _, rec := range clauses {
		out = append(out, domain.MatchedRequirement{
			Requirement: rec,
			Relevance:   1.0,
			Rationale:   "prohibited practice under " + rec.Article,
		})
	}
	return out
}

// buildFeatureQuery derives the retrieval query text from the
// description's declared features. The retrieval service owns the
// actual ranking; this only has to surface the salient terms.
func buildFeatureQuery(sys domain.SystemDescription) string {
	var b strings.Builder
	b.WriteString(sys.Name)
	b.WriteByte(' ')
	b.WriteString(strings.ReplaceAll(string(sys.Domain), "_", " "))
	for _, d := range sys.AdditionalDomains {
		b.WriteByte(' ')
		b.WriteString(strings.ReplaceAll(string(d), "_", " "))
	}
	b.WriteByte(' ')
	b.WriteString(strings.ReplaceAll(string(sys.DeploymentContext), "_", " "))
	for _, dt := range sys.DataTypes {
		b.WriteByte(' ')
		b.WriteString(strings.ReplaceAll(string(dt), "_", " "))
	}
	for _, token := range featureTokens(sys.Features) {
		b.WriteByte(' ')
		b.WriteString(token)
	}
	b.WriteByte(' ')
	b.WriteString(sys.Description)
	return b.String()
}

func featureTokens(f domain.FeatureFlags) []string {
	out := make([]string, 0, 9)
	if f.SocialScoring {
		out = append(out, "social scoring")
	}
	if f.SubliminalManipulation {
		out = append(out, "subliminal manipulation")
	}
	if f.RealTimeBiometricID {
		out = append(out, "real-time biometric identification")
	}
	if f.EmotionRecognition {
		out = append(out, "emotion recognition")
	}
	if f.BiometricCategorization {
		out = append(out, "biometric categorization")
	}
	if f.ConversationalInterface {
		out = append(out, "chatbot conversational interface")
	}
	if f.GeneratesContent {
		out = append(out, "generated content disclosure")
	}
	if f.SafetyComponent {
		out = append(out, "safety component")
	}
	if f.AutomatedDecisions {
		out = append(out, "automated decision making")
	}
	return out
}

func matchRationale(query string, rec domain.RequirementRecord) string {
	queryTokens := toTokenSet(query)
	overlapping := make([]string, 0, 4)
	for _, kw := range rec.Keywords {
		for token := range toTokenSet(kw) {
			if _, ok := queryTokens[token]; ok {
				overlapping = append(overlapping, kw)
				break
			}
		}
		if len(overlapping) == 3 {
			break
		}
	}
	if len(overlapping) == 0 {
		return fmt.Sprintf("retrieved as relevant to the system profile (%s)", rec.Article)
	}
	return fmt.Sprintf("system profile overlaps %s (%s)", strings.Join(overlapping, ", "), rec.Article)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
