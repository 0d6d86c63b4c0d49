package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (AUTOFILER_*). A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: AUTOFILER_FALLBACK_DIR -> fallback_dir,
	// AUTOFILER_EMBEDDING__PROVIDER -> embedding.provider.
	if err := k.Load(env.Provider("AUTOFILER_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "AUTOFILER_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
	ProviderNone:   true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.FallbackDir == "" {
		return fmt.Errorf("fallback_dir is required")
	}

	if c.RecordsCap <= 0 {
		return fmt.Errorf("records_cap must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}

	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider %q: must be one of openai, ollama, none", c.Embedding.Provider)
	}

	if c.Embedding.Provider != ProviderNone && c.Embedding.Model == "" {
		return fmt.Errorf("embedding model is required for provider %q", c.Embedding.Provider)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider, or "" when none is needed.
func APIKeyEnvVar(provider ProviderType) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return ""
}
