package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/jobmatch/internal/config"
	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/index"
	"github.com/kirillkom/jobmatch/internal/core/ports"
	"github.com/kirillkom/jobmatch/internal/core/usecase"
	"github.com/kirillkom/jobmatch/internal/infrastructure/cache/redis"
	"github.com/kirillkom/jobmatch/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/jobmatch/internal/infrastructure/queue/nats"
	"github.com/kirillkom/jobmatch/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/jobmatch/internal/infrastructure/resilience"
	"github.com/kirillkom/jobmatch/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/jobmatch/internal/observability/logging"
	"github.com/kirillkom/jobmatch/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue         ports.MessageQueue
	Repo          ports.CorpusRepository
	SearchUC      *usecase.SearchUseCase
	RebuildUC     *usecase.RebuildUseCase
	ServerMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewCorpusRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	artifacts, err := localfs.New(cfg.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	var encoder ports.Embedder
	if cfg.OllamaEnabled {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
		encoder = ollama.NewEmbedder(client, executor)
	}

	var serverMetrics *metrics.HTTPServerMetrics
	if service == "api" {
		serverMetrics = metrics.NewHTTPServerMetrics(service)
	}

	var resultCache ports.ResultCache
	var cacheClose func()
	if cfg.RedisURL != "" {
		c, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		resultCache = c
		cacheClose = func() { _ = c.Close() }
		if serverMetrics != nil {
			resultCache = &instrumentedCache{inner: c, metrics: serverMetrics, service: service}
		}
	}

	builder := usecase.NewIndexBuilder(repo, encoder, artifacts, usecase.BuilderConfig{
		BM25K1: cfg.BM25K1,
		BM25B:  cfg.BM25B,
		FieldWeights: index.FieldWeights{
			Title:       cfg.WeightTitle,
			Skills:      cfg.WeightSkills,
			Description: cfg.WeightDescription,
		},
		DenseEnabled:     cfg.DenseEnabled,
		TFIDFMaxFeatures: cfg.TFIDFMaxFeatures,
		TFIDFMaxNGram:    cfg.TFIDFMaxNGram,
		EncodeBatchSize:  cfg.EncodeBatchSize,
	}, logger)

	searchUC := usecase.NewSearchUseCase(resultCache, usecase.SearchConfig{
		HybridAlpha:            cfg.HybridAlpha,
		PopularFallbackEnabled: cfg.PopularFallbackEnabled,
		CacheTTL:               time.Duration(cfg.CacheTTLSeconds) * time.Second,
	}, logger)

	// Only the worker announces rebuilds. The api rebuilds in response to
	// announcements, so letting it publish would echo every event back.
	var announceQueue ports.MessageQueue
	if service == "worker" {
		announceQueue = queue
	}
	rebuildUC := usecase.NewRebuildUseCase(builder, searchUC, announceQueue, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:         queue,
		Repo:          repo,
		SearchUC:      searchUC,
		RebuildUC:     rebuildUC,
		ServerMetrics: serverMetrics,

		closeFn: func() {
			queue.Close()
			if cacheClose != nil {
				cacheClose()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// instrumentedCache records hit/miss outcomes for every successful lookup.
type instrumentedCache struct {
	inner   ports.ResultCache
	metrics *metrics.HTTPServerMetrics
	service string
}

func (c *instrumentedCache) Get(ctx context.Context, key string) (*domain.SearchResult, bool, error) {
	result, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		c.metrics.RecordCacheLookup(c.service, hit)
	}
	return result, hit, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, result *domain.SearchResult, ttl time.Duration) error {
	return c.inner.Set(ctx, key, result, ttl)
}
