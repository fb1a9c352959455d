package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

// recommendationCandidate is a pre-synthesis recommendation: it still
// carries the raw priority signal (0=critical..3=low) instead of a
// final rank.
type recommendationCandidate struct {
	title          string
	detail         string
	signal         int
	effort         domain.EffortLevel
	source         domain.RecommendationSource
	requirementIDs []string
}

// nearDuplicateThreshold is the normalized token overlap above which
// two candidate texts are collapsed into one.
const nearDuplicateThreshold = 0.6

// SynthesizeRecommendations merges rule-based and reasoning-derived
// candidates into the final ordered action plan and compliance score.
// Pure and deterministic given its inputs.
//
// Ordering keys: severity weight of the linked requirement descending,
// effort ascending (cheaper fixes surface first among equal severity),
// catalog id ascending, title ascending. Priority ranks assigned from
// that order are a strict total order: no ties in the output.
func SynthesizeRecommendations(
	tier domain.RiskTier,
	ruleCandidates, reasoningCandidates []recommendationCandidate,
	matched []domain.MatchedRequirement,
	applicable []domain.RequirementRecord,
) ([]domain.Recommendation, float64) {
	if tier == domain.TierUnacceptable {
		return prohibitionNotices(matched), 0
	}

	severity := severityIndex(applicable, matched)

	merged := dedupeCandidates(append(append([]recommendationCandidate{}, ruleCandidates...), reasoningCandidates...))

	sort.SliceStable(merged, func(i, j int) bool {
		si, sj := candidateSeverity(merged[i], severity), candidateSeverity(merged[j], severity)
		if si != sj {
			return si > sj
		}
		if merged[i].effort.Rank() != merged[j].effort.Rank() {
			return merged[i].effort.Rank() < merged[j].effort.Rank()
		}
		ki, kj := primaryRequirementID(merged[i]), primaryRequirementID(merged[j])
		if ki != kj {
			return ki < kj
		}
		return merged[i].title < merged[j].title
	})

	out := make([]domain.Recommendation, 0, len(merged))
	for idx, c := range merged {
		out = append(out, domain.Recommendation{
			Title:          c.title,
			Detail:         c.detail,
			Priority:       idx + 1,
			Effort:         c.effort,
			Source:         c.source,
			RequirementIDs: c.requirementIDs,
		})
	}

	return out, complianceScore(matched, applicable)
}

// complianceScore measures requirement coverage for the tier:
// 1 - sum(severity of unmatched applicable) / sum(severity of all
// applicable), clamped to [0,1]. No applicable requirements means
// nothing to comply with, which scores 1.
func complianceScore(matched []domain.MatchedRequirement, applicable []domain.RequirementRecord) float64 {
	if len(applicable) == 0 {
		return 1
	}

	covered := make(map[string]bool, len(matched))
	for _, m := range matched {
		covered[m.Requirement.ID] = true
	}

	var total, unmet float64
	for _, rec := range applicable {
		total += rec.Severity
		if !covered[rec.ID] {
			unmet += rec.Severity
		}
	}
	if total <= 0 {
		return 1
	}
	return clamp01(1 - unmet/total)
}

func prohibitionNotices(matched []domain.MatchedRequirement) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(matched))
	for idx, m := range matched {
		out = append(out, domain.Recommendation{
			Title:          "Prohibited practice: " + m.Requirement.Title,
			Detail:         m.Requirement.Obligation + " No remediation restores acceptability; the system must not be deployed in this form.",
			Priority:       idx + 1,
			Effort:         domain.EffortHigh,
			Source:         domain.SourceRuleBased,
			RequirementIDs: []string{m.Requirement.ID},
		})
	}
	return out
}

// dedupeCandidates collapses exact linked-requirement duplicates and
// near-duplicate texts, keeping the candidate with the stronger
// priority signal (rule-based wins a tie so that deterministic text
// survives nondeterministic phrasing).
func dedupeCandidates(candidates []recommendationCandidate) []recommendationCandidate {
	out := make([]recommendationCandidate, 0, len(candidates))
	byKey := make(map[string]int, len(candidates))

	for _, c := range candidates {
		key := requirementKey(c)
		if prev, ok := byKey[key]; ok {
			out[prev] = preferCandidate(out[prev], c)
			continue
		}

		if idx, ok := findNearDuplicate(out, c); ok {
			out[idx] = preferCandidate(out[idx], c)
			continue
		}

		byKey[key] = len(out)
		out = append(out, c)
	}
	return out
}

// findNearDuplicate scans for a reworded duplicate: same topic by
// linked requirement, near-identical text. Requiring a shared link
// keeps legitimately distinct actions with templated phrasing apart.
func findNearDuplicate(existing []recommendationCandidate, c recommendationCandidate) (int, bool) {
	cTokens := toTokenSet(c.title + " " + c.detail)
	for idx := range existing {
		if !sharesRequirement(existing[idx], c) {
			continue
		}
		overlap := tokenOverlap(cTokens, toTokenSet(existing[idx].title+" "+existing[idx].detail))
		if overlap >= nearDuplicateThreshold {
			return idx, true
		}
	}
	return 0, false
}

func sharesRequirement(a, b recommendationCandidate) bool {
	for _, idA := range a.requirementIDs {
		for _, idB := range b.requirementIDs {
			if idA == idB {
				return true
			}
		}
	}
	return false
}

func preferCandidate(a, b recommendationCandidate) recommendationCandidate {
	if b.signal < a.signal {
		return mergeRequirementIDs(b, a)
	}
	if b.signal == a.signal && b.source == domain.SourceRuleBased && a.source != domain.SourceRuleBased {
		return mergeRequirementIDs(b, a)
	}
	return mergeRequirementIDs(a, b)
}

func mergeRequirementIDs(keep, other recommendationCandidate) recommendationCandidate {
	keep.requirementIDs = normalizeIDs(append(keep.requirementIDs, other.requirementIDs...))
	return keep
}

func requirementKey(c recommendationCandidate) string {
	ids := make([]string, len(c.requirementIDs))
	copy(ids, c.requirementIDs)
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func primaryRequirementID(c recommendationCandidate) string {
	if len(c.requirementIDs) == 0 {
		return ""
	}
	min := c.requirementIDs[0]
	for _, id := range c.requirementIDs[1:] {
		if id < min {
			min = id
		}
	}
	return min
}

// candidateSeverity is the highest severity among the candidate's
// linked requirements.
func candidateSeverity(c recommendationCandidate, severity map[string]float64) float64 {
	max := 0.0
	for _, id := range c.requirementIDs {
		if s, ok := severity[id]; ok && s > max {
			max = s
		}
	}
	return max
}

func severityIndex(applicable []domain.RequirementRecord, matched []domain.MatchedRequirement) map[string]float64 {
	out := make(map[string]float64, len(applicable)+len(matched))
	for _, rec := range applicable {
		out[rec.ID] = rec.Severity
	}
	for _, m := range matched {
		out[m.Requirement.ID] = m.Requirement.Severity
	}
	return out
}

func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	matches := 0
	for token := range small {
		if _, ok := large[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(small))
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
