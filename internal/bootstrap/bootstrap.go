package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/complyon/aiact-engine/internal/config"
	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/core/ports"
	"github.com/complyon/aiact-engine/internal/core/usecase"
	"github.com/complyon/aiact-engine/internal/infrastructure/catalog"
	"github.com/complyon/aiact-engine/internal/infrastructure/llm/anthropic"
	"github.com/complyon/aiact-engine/internal/infrastructure/queue/nats"
	"github.com/complyon/aiact-engine/internal/infrastructure/repository/postgres"
	"github.com/complyon/aiact-engine/internal/infrastructure/resilience"
	"github.com/complyon/aiact-engine/internal/infrastructure/retrieval/qdrant"
)

// requirementIndex is what a retrieval backend must provide: lookups
// for the matcher and bulk indexing at catalog load.
type requirementIndex interface {
	ports.RequirementRetriever
	ports.RequirementIndexer
}

type App struct {
	Config  config.Config
	Catalog *catalog.Store
	Queue   *nats.Queue

	AnalyzeUC *usecase.AnalyzeUseCase
	EnqueueUC *usecase.EnqueueAnalysisUseCase
	ProcessUC *usecase.ProcessAnalysisUseCase
	QueryUC   *usecase.ReportQueryUseCase

	Analyses ports.AnalysisStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	reportRepo := postgres.NewReportRepository(db)
	if err := reportRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure report schema: %w", err)
	}
	analysisRepo := postgres.NewAnalysisRepository(db)
	if err := analysisRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure analysis schema: %w", err)
	}

	snapshot, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load requirement catalog: %w", err)
	}
	catalogStore := catalog.NewStore(snapshot)

	var index requirementIndex
	switch cfg.RetrievalBackend {
	case "qdrant":
		index = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	default:
		index = qdrant.NewMemoryClient()
	}
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

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init analysis queue: %w", err)
	}

	matcher := usecase.NewRequirementMatcher(index, cfg.MatchTopK, time.Duration(cfg.MatchTimeoutSeconds)*time.Second)
	reasoner := usecase.NewNarrativeReasoner(reasoningClient, time.Duration(cfg.ReasonerTimeoutSeconds)*time.Second)
	clock := systemClock{}

	analyzeUC := usecase.NewAnalyzeUseCase(catalogStore, matcher, reasoner, clock, time.Duration(cfg.AnalysisBudgetSeconds)*time.Second)
	enqueueUC := usecase.NewEnqueueAnalysisUseCase(analysisRepo, queue, clock)
	processUC := usecase.NewProcessAnalysisUseCase(analyzeUC, analysisRepo, reportRepo)
	queryUC := usecase.NewReportQueryUseCase(reportRepo, analysisRepo)

	return &App{
		Config:  cfg,
		Catalog: catalogStore,
		Queue:   queue,

		AnalyzeUC: analyzeUC,
		EnqueueUC: enqueueUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,

		Analyses: analysisRepo,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func loadCatalog(cfg config.Config) (*domain.CatalogSnapshot, error) {
	if cfg.CatalogPath != "" {
		return catalog.LoadYAML(cfg.CatalogPath)
	}
	return catalog.LoadDefault()
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
