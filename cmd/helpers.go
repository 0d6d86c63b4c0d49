package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/allowlist"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/config"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/db"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/embeddings"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/engine"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/index"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/rules"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `autofiler init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// Provider none returns nil; the engine then scores on rules alone.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, cfg.Embedding.Model), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.Embedding.Model, 768, cfg.Embedding.BaseURL), nil
	default:
		return nil, nil
	}
}

// openEngine opens the database and assembles the engine from config. The
// caller owns the returned database handle and must close it.
func openEngine(ctx context.Context, cfg *config.Config, events engine.EventSink) (*engine.Engine, *db.DB, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	rulesStore, err := rules.NewStore(ctx, database, cfg.SeedRules)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("loading rules: %w", err)
	}
	allowStore, err := allowlist.NewStore(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("loading allowlist: %w", err)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	oracle := embeddings.NewOracle(embedder)

	eng := engine.New(engine.Options{
		Rules:       rulesStore,
		Allowlist:   allowStore,
		Index:       index.New(oracle),
		Oracle:      oracle,
		FallbackDir: cfg.FallbackDir,
		RecordsCap:  cfg.RecordsCap,
		Events:      events,
	})
	return eng, database, nil
}

// engineFromConfig is the shared open path for one-shot commands.
func engineFromConfig(ctx context.Context) (*engine.Engine, *db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return openEngine(ctx, cfg, nil)
}
