// Package bootstrap wires infrastructure into the usecases shared by the
// api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/ciclopsmx/franchise-reports/internal/config"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
	"github.com/ciclopsmx/franchise-reports/internal/core/usecase"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/extractor/pdftext"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/llm/openai"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/queue/nats"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/repository/postgres"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/resilience"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/storage/localfs"
	"github.com/ciclopsmx/franchise-reports/internal/infrastructure/tabular"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository
	Summaries ports.SummaryRepository

	IngestUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor
	SyncUC      ports.SummarySyncer
	DashboardUC ports.DashboardService
	ChatUC      ports.ChatService
	AnalyzeUC   ports.AnalysisService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	rows := postgres.NewRawRowStore(db)
	summaries := postgres.NewSummaryRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	var classifier ports.FieldClassifier
	var insights *openai.Insights
	if cfg.LLMEnabled && cfg.LLMAPIKey != "" {
		llmClient, err := openai.New(openai.Options{
			BaseURL:  cfg.LLMBaseURL,
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
			Executor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init llm client: %w", err)
		}
		classifier = openai.NewClassifier(llmClient)
		insights = openai.NewInsights(llmClient)
	}

	ruleCfg, err := usecase.LoadRuleConfig(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load extraction rules: %w", err)
	}
	extractor := usecase.NewStatementExtractor(ruleCfg)
	reconciler := usecase.NewReconciler(summaries)

	ingestUC := usecase.NewIngestDocumentUseCase(
		documents, rows, storage, queue,
		tabular.NewReader(), pdftext.NewReader(), classifier,
	)
	processUC := usecase.NewProcessDocumentUseCase(documents, rows, extractor, reconciler)
	syncUC := usecase.NewResyncUseCase(documents, rows, summaries, extractor, reconciler)
	dashboardUC := usecase.NewDashboardUseCase(documents, summaries)

	var chatUC ports.ChatService
	var analyzeUC ports.AnalysisService
	if insights != nil {
		chatUC = usecase.NewChatUseCase(documents, summaries, insights)
		analyses := postgres.NewAnalysisRepository(db)
		analyzeUC = usecase.NewAnalyzeDocumentUseCase(documents, rows, analyses, insights)
	}

	return &App{
		Config: cfg,

		Queue:     queue,
		Documents: documents,
		Summaries: summaries,

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		SyncUC:      syncUC,
		DashboardUC: dashboardUC,
		ChatUC:      chatUC,
		AnalyzeUC:   analyzeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
