package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
	"github.com/complyon/aiact-engine/internal/core/usecase"
)

// Options carries the traffic-control knobs for the public surface.
// Zero values disable the corresponding gate.
type Options struct {
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxInFlight     int
	OverloadTimeout time.Duration

	// AnalysisObserver is called after each successful synchronous
	// analysis, with the report and wall-clock pipeline duration.
	AnalysisObserver func(report *domain.ComplianceReport, duration time.Duration)
}

type Router struct {
	analyzer ports.ComplianceAnalyzer
	enqueuer ports.AnalysisEnqueuer
	queries  *usecase.ReportQueryUseCase
	opts     Options
}

func NewRouter(
	analyzer ports.ComplianceAnalyzer,
	enqueuer ports.AnalysisEnqueuer,
	queries *usecase.ReportQueryUseCase,
	opts Options,
) *Router {
	return &Router{
		analyzer: analyzer,
		enqueuer: enqueuer,
		queries:  queries,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/analyses", rt.analyze)
	mux.HandleFunc("/v1/analyses/async", rt.enqueueAnalysis)
	mux.HandleFunc("/v1/analyses/validate", rt.validateSystem)
	mux.HandleFunc("/v1/analyses/", rt.getAnalysisByID)
	mux.HandleFunc("/v1/reports", rt.listReports)
	mux.HandleFunc("/v1/reports/", rt.getReportByID)
	mux.HandleFunc("/v1/risk-tiers", rt.listRiskTiers)
	mux.HandleFunc("/v1/domains", rt.listDomains)

	var handler http.Handler = mux
	if rt.opts.MaxInFlight > 0 {
		overloadTimeout := rt.opts.OverloadTimeout
		if overloadTimeout <= 0 {
			overloadTimeout = 100 * time.Millisecond
		}
		handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, overloadTimeout)
	}
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	system, ok := decodeSystem(w, r)
	if !ok {
		return
	}

	start := time.Now()
	report, err := rt.analyzer.Analyze(r.Context(), system)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.opts.AnalysisObserver != nil {
		rt.opts.AnalysisObserver(report, time.Since(start))
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) enqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	system, ok := decodeSystem(w, r)
	if !ok {
		return
	}

	req, err := rt.enqueuer.Enqueue(r.Context(), system)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"analysis_id": req.ID,
		"status":      req.Status,
	})
}

// validateSystem checks the description without running the pipeline
// and previews the risk tier the full analysis would assign.
func (rt *Router) validateSystem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	system, ok := decodeSystem(w, r)
	if !ok {
		return
	}
	if err := system.Validate(); err != nil {
		writeError(w, err)
		return
	}

	warnings := []string{}
	suggestions := []string{}
	if len(system.Description) < 100 {
		warnings = append(warnings, "Description is quite short. More detail may improve analysis accuracy.")
	}
	if system.RiskMitigation == "" {
		warnings = append(warnings, "No risk mitigation measures specified. This information helps with risk assessment.")
	}
	if system.EstimatedUsers > 1000000 {
		suggestions = append(suggestions, "Large user base detected. Consider additional privacy and safety measures.")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":       true,
		"risk_tier":   usecase.ClassifyRisk(system),
		"warnings":    warnings,
		"suggestions": suggestions,
	})
}

func (rt *Router) getAnalysisByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/analyses/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "analysis id is required"})
		return
	}

	req, report, err := rt.queries.GetAnalysisByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"analysis_id": req.ID,
		"status":      req.Status,
		"created_at":  req.CreatedAt,
		"updated_at":  req.UpdatedAt,
	}
	if req.Error != "" {
		resp["error"] = req.Error
	}
	if report != nil {
		resp["report"] = report
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) listReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := rt.queries.ListRecentReports(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (rt *Router) getReportByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report id is required"})
		return
	}

	report, err := rt.queries.GetReportByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) listRiskTiers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"risk_tiers": domain.TierProfiles()})
}

func (rt *Router) listDomains(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"domains": domain.KnownDomains()})
}

func decodeSystem(w http.ResponseWriter, r *http.Request) (domain.SystemDescription, bool) {
	var system domain.SystemDescription
	if err := json.NewDecoder(r.Body).Decode(&system); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return domain.SystemDescription{}, false
	}
	return system, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
