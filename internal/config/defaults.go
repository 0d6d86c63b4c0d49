package config

import (
	"os"
	"path/filepath"
)

// defaultModels maps each provider to its default embedding model.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// DefaultModel returns the default embedding model for the given provider.
func DefaultModel(provider ProviderType) string {
	return defaultModels[provider]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     defaultDataDir(),
		FallbackDir: defaultFallbackDir(),
		SeedRules:   "seeds.yml",
		RecordsCap:  1024,
		Embedding: EmbeddingConfig{
			Provider: ProviderOpenAI,
			Model:    DefaultModel(ProviderOpenAI),
			BaseURL:  "http://localhost:11434",
		},
		Server: ServerConfig{
			Port:            8484,
			AllowAllOrigins: true,
		},
	}
}

// DatabasePath returns the path of the engine's SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "autofiler.db")
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "autofiler-data"
	}
	return filepath.Join(base, "autofiler")
}

func defaultFallbackDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "_Unsorted"
	}
	return filepath.Join(home, "Desktop", "_Unsorted")
}
