// Package config loads the pipeline's runtime configuration: LLM
// connection/retry settings, stage concurrency and timeout budgets, store
// TTLs, and the listen address for the task orchestrator's HTTP surface.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration record, loaded from a TOML file. Outside
// the file, only the OpenAI API key is taken from the environment
// (OPENAI_API_KEY, read by Default); other values come from the file or
// the defaults.
type Config struct {
	Server Server `toml:"server"`
	LLM    LLM    `toml:"llm"`
	Stages Stages `toml:"stages"`
	Store  Store  `toml:"store"`
}

// Server carries the HTTP-surface settings (out of scope for the pipeline
// itself, but needed by cmd/analyzer to bind a listener).
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LLM carries the OpenAI client settings. The retry fields and
// DefaultCallSecs are loaded and defaulted here, but the content analyzer
// and the architect planner do not read them: both use
// llmclient.DefaultRetryPolicy and a fixed 90-second per-call timeout.
type LLM struct {
	APIKey           string `toml:"api_key"`
	Model            string `toml:"model"`
	EmbeddingModel   string `toml:"embedding_model"`
	DefaultCallSecs  int    `toml:"default_call_timeout_seconds"`
	RetryMaxAttempts int    `toml:"retry_max_attempts"`
	RetryBaseDelayMs int    `toml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int    `toml:"retry_max_delay_ms"`
}

// Stages carries the per-stage concurrency cap and timeout budget.
type Stages struct {
	AnalyzerConcurrency int `toml:"analyzer_concurrency"`
	AnalyzerTopK        int `toml:"analyzer_top_k"`
	DocumentParsingSecs int `toml:"document_parsing_timeout_seconds"`
	ContentAnalysisSecs int `toml:"content_analysis_timeout_seconds"`
	AIAnalysisSecs      int `toml:"ai_analysis_timeout_seconds"`
}

// Store carries the key-value store adapter's settings.
type Store struct {
	Backend  string `toml:"backend"` // "memory" or "redis"
	RedisURL string `toml:"redis_url"`
	TTLHours int    `toml:"ttl_hours"`
}

// Default returns the configuration the pipeline runs with when no config
// file is present, with API keys sourced from the environment since they
// must never live in a checked-in TOML file.
func Default() *Config {
	return &Config{
		Server: Server{Host: "127.0.0.1", Port: 8080},
		LLM: LLM{
			APIKey:           os.Getenv("OPENAI_API_KEY"),
			Model:            "gpt-4o-mini",
			EmbeddingModel:   "text-embedding-3-small",
			DefaultCallSecs:  90,
			RetryMaxAttempts: 3,
			RetryBaseDelayMs: 2000,
			RetryMaxDelayMs:  8000,
		},
		Stages: Stages{
			AnalyzerConcurrency: 4,
			AnalyzerTopK:        5,
			DocumentParsingSecs: 120,
			ContentAnalysisSecs: 600,
			AIAnalysisSecs:      900,
		},
		Store: Store{
			Backend:  "memory",
			TTLHours: 24,
		},
	}
}

// Load reads path, merging over Default(); a missing file is not an error
// and yields the defaults untouched. Environment variables in the file
// (e.g. "${OPENAI_API_KEY}") are expanded before parsing.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// CallTimeout returns the configured per-LLM-call timeout as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.LLM.DefaultCallSecs) * time.Second
}

// DocumentParsingTimeout, ContentAnalysisTimeout, and AIAnalysisTimeout
// return the configured per-stage budgets as durations.
func (c *Config) DocumentParsingTimeout() time.Duration {
	return time.Duration(c.Stages.DocumentParsingSecs) * time.Second
}

func (c *Config) ContentAnalysisTimeout() time.Duration {
	return time.Duration(c.Stages.ContentAnalysisSecs) * time.Second
}

func (c *Config) AIAnalysisTimeout() time.Duration {
	return time.Duration(c.Stages.AIAnalysisSecs) * time.Second
}

// StoreTTL returns the configured store entry lifetime.
func (c *Config) StoreTTL() time.Duration {
	return time.Duration(c.Store.TTLHours) * time.Hour
}

// Validate checks the invariants the orchestrator and LLM client rely on.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set OPENAI_API_KEY or the config file)")
	}
	if c.Stages.AnalyzerConcurrency < 1 {
		return fmt.Errorf("stages.analyzer_concurrency must be at least 1")
	}
	if c.Store.Backend != "memory" && c.Store.Backend != "redis" {
		return fmt.Errorf("store.backend must be \"memory\" or \"redis\", got %q", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.RedisURL == "" {
		return fmt.Errorf("store.redis_url is required when store.backend is \"redis\"")
	}
	return nil
}
