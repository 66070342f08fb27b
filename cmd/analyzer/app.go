package main

import (
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/philippgille/chromem-go"
	"github.com/redis/go-redis/v9"

	"github.com/sharoA/document-analyzer-sub000/internal/analyzer"
	"github.com/sharoA/document-analyzer-sub000/internal/binder"
	"github.com/sharoA/document-analyzer-sub000/internal/config"
	"github.com/sharoA/document-analyzer-sub000/internal/llmclient"
	"github.com/sharoA/document-analyzer-sub000/internal/orchestrator"
	"github.com/sharoA/document-analyzer-sub000/internal/parser"
	"github.com/sharoA/document-analyzer-sub000/internal/planner"
	"github.com/sharoA/document-analyzer-sub000/internal/registry"
	"github.com/sharoA/document-analyzer-sub000/internal/store"
	"github.com/sharoA/document-analyzer-sub000/internal/vectorstore"
)

// backgroundPoolSize bounds how many automatic-mode pipeline runs the
// HTTP server drives concurrently in the background, independent of any
// per-stage LLM concurrency cap.
const backgroundPoolSize = 8

// app bundles every wired component one process needs, built once from
// config and shared by both the "run" one-shot command and the "serve"
// HTTP server.
type app struct {
	cfg          *config.Config
	hub          *registry.Hub
	binder       *binder.Binder
	orchestrator *orchestrator.Orchestrator
	background   *ants.Pool
}

func buildApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	kv, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	hub := registry.NewHub(kv)

	llm := llmclient.New(cfg.LLM.APIKey, cfg.LLM.Model)

	vs, err := vectorstore.NewChromemStore(chromem.NewDB(), "document-analyzer-corpus", llm.Embed)
	if err != nil {
		return nil, fmt.Errorf("build vector store: %w", err)
	}

	p := parser.New(llm.Embed)
	a := analyzer.New(llm, vs).
		WithConcurrency(cfg.Stages.AnalyzerConcurrency)
	pl := planner.New(llm)

	orch := orchestrator.New(hub, p, a, pl).WithTimeouts(orchestrator.Timeouts{
		DocumentParsing: cfg.DocumentParsingTimeout(),
		ContentAnalysis: cfg.ContentAnalysisTimeout(),
		AIAnalysis:      cfg.AIAnalysisTimeout(),
	})

	b := binder.New(nil)

	bg, err := ants.NewPool(backgroundPoolSize)
	if err != nil {
		return nil, fmt.Errorf("build background pool: %w", err)
	}

	return &app{cfg: cfg, hub: hub, binder: b, orchestrator: orch, background: bg}, nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Backend == "memory" {
		slog.Info("using in-memory store", "ttl_hours", cfg.Store.TTLHours)
		return store.NewMemStore(), nil
	}

	opts, err := redis.ParseURL(cfg.Store.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse store.redis_url: %w", err)
	}
	slog.Info("using redis store", "addr", opts.Addr)
	return store.New(redis.NewClient(opts)), nil
}
