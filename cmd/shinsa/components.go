package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/shinsa/internal/config"
	"github.com/hyperjump/shinsa/internal/embedding"
	"github.com/hyperjump/shinsa/internal/extract"
	"github.com/hyperjump/shinsa/internal/ingest"
	"github.com/hyperjump/shinsa/internal/judge"
	"github.com/hyperjump/shinsa/internal/llm"
	"github.com/hyperjump/shinsa/internal/policy"
	"github.com/hyperjump/shinsa/internal/service"
	"github.com/hyperjump/shinsa/internal/storage"
	"github.com/hyperjump/shinsa/internal/vector"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Pool     *pgxpool.Pool
	Ingestor *ingest.Ingestor
	Standing *policy.Standing
	Service  *service.Service
}

func (c *Components) Close() {
	if c.Standing != nil {
		_ = c.Standing.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

type componentOptions struct {
	withStorage bool
	// policyPath overrides cfg.Policy.Path for the standing policy; empty uses config.
	policyPath string
	mode       string
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts componentOptions) (*Components, error) {
	c := &Components{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	if opts.withStorage {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
	}

	embedder, err := embedding.New(ctx, &cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = embedder

	factory := &vector.Factory{Type: vector.IndexType(cfg.Vector.Backend), Table: cfg.Vector.Table}
	if factory.Type == vector.IndexTypePgVector {
		pool, err := pgxpool.New(ctx, cfg.Vector.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c.Pool = pool
		if err := vector.EnsurePgVectorSchema(ctx, pool, cfg.Vector.Table, cfg.Embedding.Dimensions); err != nil {
			return nil, fmt.Errorf("failed to prepare pgvector schema: %w", err)
		}
		factory.Pool = pool
	}
	logger.Info("vector backend initialized", zap.String("backend", string(factory.Type)))

	c.Ingestor = ingest.NewIngestor(embedder, extract.NewExtractor(),
		ingest.WithLogger(logger),
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingest.WithVectorFactory(factory),
		ingest.WithFusionWeights(cfg.Policy.KeywordWeight, cfg.Policy.SemanticWeight),
	)

	policyPath := opts.policyPath
	if policyPath == "" {
		policyPath = cfg.Policy.Path
	}
	if policyPath != "" {
		c.Standing = policy.NewStanding(policyPath, c.Ingestor.LoadPolicyFile, logger)
		if err := c.Standing.Reload(ctx); err != nil {
			return nil, fmt.Errorf("failed to load policy %s: %w", policyPath, err)
		}
	}

	mode := opts.mode
	if mode == "" {
		mode = cfg.Judge.Mode
	}
	judges, err := buildJudges(ctx, cfg, mode, logger)
	if err != nil {
		return nil, err
	}

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithAudit(cfg.Audit.Concurrency, cfg.Audit.RecordTimeout()),
		service.WithStanding(c.Standing),
	}
	if c.Storage != nil {
		svcOpts = append(svcOpts, service.WithStorage(c.Storage))
	}
	svc, err := service.New(c.Ingestor, judges, mode, svcOpts...)
	if err != nil {
		return nil, err
	}
	c.Service = svc
	ok = true
	return c, nil
}

// buildJudges always provides the similarity judge. The generative judge is added
// when the LLM provider can be constructed; it is required when mode is generative.
func buildJudges(ctx context.Context, cfg *config.Config, mode string, logger *zap.Logger) (map[string]judge.Judge, error) {
	judges := make(map[string]judge.Judge, 2)
	sim, err := judge.New(judge.ModeSimilarity, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	judges[judge.ModeSimilarity] = sim

	gen, err := llm.New(ctx, &cfg.LLM)
	if err != nil {
		if mode == judge.ModeGenerative {
			return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
		}
		logger.Warn("generative judge unavailable", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		return judges, nil
	}
	g, err := judge.New(judge.ModeGenerative, cfg, gen, logger)
	if err != nil {
		return nil, err
	}
	judges[judge.ModeGenerative] = g
	return judges, nil
}
