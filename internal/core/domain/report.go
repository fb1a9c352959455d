package domain

import "time"

// RetrievalHit is one candidate returned by the knowledge retrieval
// service: a requirement reference with its relevance score in [0,1].
type RetrievalHit struct {
	RequirementID string  `json:"requirement_id"`
	Relevance     float64 `json:"relevance"`
}

// MatchedRequirement pairs a catalog record with the relevance the
// retrieval pass assigned to it and a short match rationale.
type MatchedRequirement struct {
	Requirement RequirementRecord `json:"requirement"`
	Relevance   float64           `json:"relevance"`
	Rationale   string            `json:"rationale,omitempty"`
}

type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

// Rank orders efforts ascending: cheaper fixes rank first among equal
// severity.
func (e EffortLevel) Rank() int {
	switch e {
	case EffortLow:
		return 0
	case EffortMedium:
		return 1
	case EffortHigh:
		return 2
	default:
		return 3
	}
}

type RecommendationSource string

const (
	SourceRuleBased        RecommendationSource = "rule_based"
	SourceReasoningService RecommendationSource = "reasoning_service"
)

// Recommendation is one remediation action in the final plan. Priority
// ranks form a strict total order over the report's recommendation
// list: no two entries share a rank.
type Recommendation struct {
	Title          string               `json:"title"`
	Detail         string               `json:"detail"`
	Priority       int                  `json:"priority"`
	Effort         EffortLevel          `json:"effort"`
	Source         RecommendationSource `json:"source"`
	RequirementIDs []string             `json:"requirement_ids"`
}

// AnalysisState tracks one analysis call through the pipeline. The
// Degraded flag is orthogonal: it can be raised at the matched or
// synthesized transitions without changing the state sequence.
type AnalysisState string

const (
	StateReceived    AnalysisState = "received"
	StateClassified  AnalysisState = "classified"
	StateMatched     AnalysisState = "matched"
	StateSynthesized AnalysisState = "synthesized"
	StateCompleted   AnalysisState = "completed"
)

// ComplianceReport is the immutable result of one analysis call.
// Re-analysis produces a new report, never mutates a prior one.
type ComplianceReport struct {
	ID             string   `json:"id"`
	SystemID       string   `json:"system_id"`
	SystemName     string   `json:"system_name"`
	Tier           RiskTier `json:"risk_tier"`
	CatalogVersion string   `json:"catalog_version"`

	Matched         []MatchedRequirement `json:"matched_requirements"`
	Recommendations []Recommendation     `json:"recommendations"`
	ComplianceScore float64              `json:"compliance_score"`

	ExecutiveSummary        string   `json:"executive_summary"`
	KeyRisks                []string `json:"key_risks,omitempty"`
	ImmediateActions        []string `json:"immediate_actions,omitempty"`
	EstimatedComplianceTime string   `json:"estimated_compliance_time,omitempty"`
	ConfidenceLevel         string   `json:"confidence_level"`

	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"generated_at"`
}

type AnalysisStatus string

const (
	AnalysisQueued     AnalysisStatus = "queued"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// AnalysisRequest is a queued asynchronous analysis job.
type AnalysisRequest struct {
	ID        string            `json:"id"`
	System    SystemDescription `json:"system"`
	Status    AnalysisStatus    `json:"status"`
	ReportID  string            `json:"report_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
