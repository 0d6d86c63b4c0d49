package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// exampleSeeds is written next to the config by the wizard so users have a
// starting point for filename rules.
const exampleSeeds = `# Seed rules for autofiler. Each match contributes a small starting weight;
# everything after that is learned from your accept/correct feedback.

base_dirs:
  Invoices: ~/Documents/Invoices
  Screenshots: ~/Pictures/Screenshots
  Installers: ~/Downloads/Installers

rules:
  - to: Invoices
    if_ext_in: [pdf]
    if_name_has_any: [invoice, receipt, bill]
  - to: Screenshots
    if_ext_in: [png, jpg, jpeg]
  - to: Installers
    if_ext_in: [exe, msi, dmg, pkg]
`

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .autofiler.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to autofiler! Let's configure the suggestion engine.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider selection.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider (semantic folder matching)",
		Items: []string{
			"openai — hosted embeddings (needs OPENAI_API_KEY)",
			"ollama — local embeddings (needs a running ollama)",
			"none   — rules only, no semantic matching",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []ProviderType{ProviderOpenAI, ProviderOllama, ProviderNone}
	cfg.Embedding.Provider = providers[providerIdx]

	// 2. Model, when embeddings are on.
	if cfg.Embedding.Provider != ProviderNone {
		modelPrompt := promptui.Prompt{
			Label:   "Embedding model",
			Default: DefaultModel(cfg.Embedding.Provider),
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("embedding model: %w", err)
		}
		cfg.Embedding.Model = model
	} else {
		cfg.Embedding.Model = ""
	}

	if cfg.Embedding.Provider == ProviderOllama {
		urlPrompt := promptui.Prompt{
			Label:   "Ollama base URL",
			Default: cfg.Embedding.BaseURL,
		}
		baseURL, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("ollama base url: %w", err)
		}
		cfg.Embedding.BaseURL = baseURL
	}

	// 3. Fallback folder for files with no configured destination.
	fallbackPrompt := promptui.Prompt{
		Label:   "Fallback folder for unsorted files",
		Default: cfg.FallbackDir,
	}
	fallbackDir, err := fallbackPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("fallback dir: %w", err)
	}
	cfg.FallbackDir = fallbackDir

	// 4. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 5. Example seed rules.
	seedsPrompt := promptui.Select{
		Label: "Write an example seeds.yml with starter rules",
		Items: []string{"yes", "no"},
	}
	seedsIdx, _, err := seedsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("seeds selection: %w", err)
	}
	if seedsIdx == 0 {
		if _, err := os.Stat(cfg.SeedRules); os.IsNotExist(err) {
			if err := os.WriteFile(cfg.SeedRules, []byte(exampleSeeds), 0644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", cfg.SeedRules, err)
			}
			fmt.Printf("Wrote starter rules to %s\n", cfg.SeedRules)
		} else {
			fmt.Printf("%s already exists, leaving it alone\n", cfg.SeedRules)
		}
	}

	// Check for API key.
	envVar := APIKeyEnvVar(cfg.Embedding.Provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running autofiler server.\n", envVar)
		}
	}

	// Save to .autofiler.yml.
	configPath := ".autofiler.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
