package config

import "testing"

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("MATCH_TOP_K", "")
	t.Setenv("MATCH_TIMEOUT_SECONDS", "")
	t.Setenv("REASONER_TIMEOUT_SECONDS", "")
	t.Setenv("ANALYSIS_BUDGET_SECONDS", "")
	t.Setenv("RETRIEVAL_BACKEND", "")

	cfg := Load()
	if cfg.MatchTopK != 10 {
		t.Fatalf("expected default match top k 10, got %d", cfg.MatchTopK)
	}
	if cfg.MatchTimeoutSeconds != 5 {
		t.Fatalf("expected default match timeout 5s, got %d", cfg.MatchTimeoutSeconds)
	}
	if cfg.ReasonerTimeoutSeconds != 20 {
		t.Fatalf("expected default reasoner timeout 20s, got %d", cfg.ReasonerTimeoutSeconds)
	}
	if cfg.AnalysisBudgetSeconds != 30 {
		t.Fatalf("expected default analysis budget 30s, got %d", cfg.AnalysisBudgetSeconds)
	}
	if cfg.RetrievalBackend != "memory" {
		t.Fatalf("expected default retrieval backend memory, got %q", cfg.RetrievalBackend)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MATCH_TOP_K", "25")
	t.Setenv("RETRIEVAL_BACKEND", "qdrant")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_RATE_LIMIT_BURST", "5")
	t.Setenv("ANTHROPIC_REQUESTS_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.MatchTopK != 25 {
		t.Fatalf("expected match top k 25, got %d", cfg.MatchTopK)
	}
	if cfg.RetrievalBackend != "qdrant" {
		t.Fatalf("expected retrieval backend qdrant, got %q", cfg.RetrievalBackend)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 5 {
		t.Fatalf("expected rate limit burst 5, got %d", cfg.APIRateLimitBurst)
	}
	if cfg.AnthropicRPM != 60 {
		t.Fatalf("expected invalid rpm to fall back to 60, got %d", cfg.AnthropicRPM)
	}
}
