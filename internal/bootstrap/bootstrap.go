// Package bootstrap assembles the object graph shared by the API and the
// worker: storage, repositories, queue, external clients, and the pipeline
// usecases.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/expensedocs/internal/cache"
	"github.com/kirillkom/expensedocs/internal/config"
	"github.com/kirillkom/expensedocs/internal/core/usecase"
	"github.com/kirillkom/expensedocs/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/expensedocs/internal/infrastructure/queue/nats"
	"github.com/kirillkom/expensedocs/internal/infrastructure/recognition/docrec"
	"github.com/kirillkom/expensedocs/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/expensedocs/internal/infrastructure/resilience"
	"github.com/kirillkom/expensedocs/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/expensedocs/internal/infrastructure/webhook"
	"github.com/kirillkom/expensedocs/internal/observability/metrics"
)

type App struct {
	Config config.Config

	DB    *sql.DB
	Queue *nats.Queue

	Documents *postgres.DocumentRepository

	Ingest      *usecase.IngestDocumentUseCase
	Processor   *usecase.ProcessDocumentUseCase
	Coordinator *usecase.BatchCoordinatorUseCase

	Metrics *metrics.PipelineMetrics
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	documents := postgres.NewDocumentRepository(db)
	vendors := postgres.NewVendorRepository(db)
	categories := postgres.NewCategoryRepository(db)
	history := postgres.NewHistoryRepository(db)

	if err := documents.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init local storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	breakerCfg := resilience.DefaultBreakerConfig()
	breakerCfg.Enabled = cfg.BreakerEnabled

	recognizer := docrec.New(cfg.RecognitionURL, docrec.Options{
		APIKey:   cfg.RecognitionAPIKey,
		Executor: resilience.NewExecutor(breakerCfg),
		Policy: resilience.ExponentialRetry(
			cfg.RecognitionMaxAttempts,
			time.Duration(cfg.RecognitionBackoffSec)*time.Second,
			2.0,
		),
	})

	reasoner := ollama.NewReasoner(ollama.New(cfg.OllamaURL, cfg.OllamaModel, resilience.NewExecutor(breakerCfg)))

	resultCache := cache.New(time.Duration(cfg.CacheDefaultTTLSec) * time.Second)
	notifier := webhook.New(cfg.WebhookURL, cfg.WebhookMaxPerSecond)

	resolver := usecase.NewVendorResolver(vendors)
	classifier := usecase.NewClassifier(reasoner, categories)
	mapper := usecase.NewCategoryMapper(categories)

	pipelineMetrics := metrics.NewPipelineMetrics(service)

	processor := usecase.NewProcessDocumentUseCase(
		documents,
		storage,
		recognizer,
		resolver,
		classifier,
		mapper,
		history,
		notifier,
		resultCache,
	)

	return &App{
		Config:      cfg,
		DB:          db,
		Queue:       queue,
		Documents:   documents,
		Ingest:      usecase.NewIngestDocumentUseCase(documents, storage, queue),
		Processor:   processor,
		Coordinator: usecase.NewBatchCoordinator(processor, cfg.BatchMaxConcurrent, pipelineMetrics),
		Metrics:     pipelineMetrics,
	}, nil
}

func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
