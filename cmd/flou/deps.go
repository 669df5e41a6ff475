package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"flou/internal/catalog"
	"flou/internal/config"
	"flou/internal/dialogue"
	"flou/internal/embedding"
	"flou/internal/llm"
	"flou/internal/logging"
	"flou/internal/session"
)

// runtimeDeps bundles everything both commands need to process turns.
type runtimeDeps struct {
	Config       *config.Config
	Client       llm.Client
	Catalog      *catalog.Catalog
	Orchestrator *dialogue.Orchestrator
}

// buildDeps wires the turn pipeline from configuration: LLM client with
// retry, catalog, extractor, crisis guard and the configured selector.
func buildDeps(ctx context.Context, cfg *config.Config, logger logging.Logger) (*runtimeDeps, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("llm.api_key is not set (use FLOU_LLM_API_KEY or the config file)")
	}

	client := llm.NewOpenAIClient(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger)

	retry := llm.DefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retry.MaxAttempts = cfg.LLM.MaxRetries + 1
	}
	client = llm.WrapWithRetry(client, retry, logger)

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load strategy catalog: %w", err)
	}

	selector, err := buildSelector(ctx, cfg, cat, logger)
	if err != nil {
		return nil, err
	}

	orchestrator := dialogue.NewOrchestrator(
		client,
		dialogue.NewLLMExtractor(client, logger),
		dialogue.NewCrisisGuard(client, logger),
		selector,
		logger,
	)

	return &runtimeDeps{
		Config:       cfg,
		Client:       client,
		Catalog:      cat,
		Orchestrator: orchestrator,
	}, nil
}

func buildSelector(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, logger logging.Logger) (dialogue.Selector, error) {
	switch cfg.Selector.Mode {
	case "semantic":
		apiKey := cfg.Embedding.APIKey
		if apiKey == "" {
			apiKey = cfg.LLM.APIKey
		}
		embedder, err := embedding.NewEmbedder(embedding.Config{
			Model:     cfg.Embedding.Model,
			APIKey:    apiKey,
			BaseURL:   cfg.Embedding.BaseURL,
			CacheSize: cfg.Embedding.CacheSize,
		})
		if err != nil {
			return nil, fmt.Errorf("build embedder: %w", err)
		}
		selector, err := dialogue.NewSemanticSelector(ctx, cat, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("index strategy catalog: %w", err)
		}
		return selector, nil
	default:
		return dialogue.NewRuleSelector(cat), nil
	}
}

// buildStore opens the configured session backend.
func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Sessions.Backend {
	case "file":
		store, err := session.NewFileStore(cfg.Sessions.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file session store: %w", err)
		}
		return store, nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Sessions.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
		store, err := session.NewSQLiteStore(filepath.Join(cfg.Sessions.Dir, "sessions.db"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(), nil
	}
}
