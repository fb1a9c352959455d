package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/complyon/aiact-engine/internal/config"
	"github.com/complyon/aiact-engine/internal/core/usecase"
	"github.com/complyon/aiact-engine/internal/infrastructure/catalog"
	"github.com/complyon/aiact-engine/internal/infrastructure/llm/anthropic"
	"github.com/complyon/aiact-engine/internal/infrastructure/resilience"
	"github.com/complyon/aiact-engine/internal/infrastructure/retrieval/qdrant"
)

// NewLocalAnalyzer wires the analysis pipeline without Postgres or
// NATS: in-process retrieval over the loaded catalog plus the remote
// reasoning service. Used by the MCP server and the CLI, where a
// single process answers one request at a time.
func NewLocalAnalyzer(ctx context.Context, cfg config.Config) (*usecase.AnalyzeUseCase, error) {
	snapshot, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load requirement catalog: %w", err)
	}
	catalogStore := catalog.NewStore(snapshot)

	index := qdrant.NewMemoryClient()
	if err := index.IndexSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("index requirement catalog: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	reasoningClient := anthropic.New(
		cfg.AnthropicBaseURL,
		cfg.AnthropicAPIKey,
		cfg.AnthropicModel,
		executor,
		anthropic.WithRequestsPerMinute(cfg.AnthropicRPM),
	)

	matcher := usecase.NewRequirementMatcher(index, cfg.MatchTopK, time.Duration(cfg.MatchTimeoutSeconds)*time.Second)
	reasoner := usecase.NewNarrativeReasoner(reasoningClient, time.Duration(cfg.ReasonerTimeoutSeconds)*time.Second)

	return usecase.NewAnalyzeUseCase(catalogStore, matcher, reasoner, systemClock{}, time.Duration(cfg.AnalysisBudgetSeconds)*time.Second), nil
}
