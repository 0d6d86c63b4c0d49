package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	// ProviderNone disables semantic scoring entirely; the engine runs on
	// rules alone.
	ProviderNone ProviderType = "none"
)

// Config is the top-level autofiler configuration, corresponding to .autofiler.yml.
type Config struct {
	DataDir     string          `yaml:"data_dir" koanf:"data_dir"`
	FallbackDir string          `yaml:"fallback_dir" koanf:"fallback_dir"`
	SeedRules   string          `yaml:"seed_rules" koanf:"seed_rules"`
	RecordsCap  int             `yaml:"records_cap" koanf:"records_cap"`
	Embedding   EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Server      ServerConfig    `yaml:"server" koanf:"server"`
}

// EmbeddingConfig selects the embedding oracle used for semantic folder
// matching.
type EmbeddingConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	BaseURL  string       `yaml:"base_url" koanf:"base_url"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
