package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/canoncourt/canoncourt/internal/model"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// resolveConfig builds the effective configuration: defaults, then the
// config file, then environment overrides. Commands apply their own flag
// overrides on top of the returned value.
func resolveConfig() (model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// CANONCOURT_PROVIDER, CANONCOURT_MODEL, CANONCOURT_BASE_URL
	if p := viper.GetString("provider"); p != "" {
		cfg.LLM.Provider = p
	}
	if m := viper.GetString("model"); m != "" {
		cfg.LLM.Model = m
	}
	if u := viper.GetString("base_url"); u != "" {
		cfg.LLM.BaseURL = u
	}

	applyProviderEnv(&cfg)
	return cfg, nil
}

// applyProviderEnv fills in the API key and endpoint from provider-specific
// environment variables when the config leaves them blank.
func applyProviderEnv(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "openai", "groq":
		if cfg.LLM.APIKey == "" {
			if key := os.Getenv("GROQ_API_KEY"); key != "" {
				cfg.LLM.APIKey = key
				if cfg.LLM.BaseURL == "" {
					cfg.LLM.BaseURL = groqBaseURL
				}
			} else {
				cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			}
		}
		if cfg.LLM.Provider == "groq" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = groqBaseURL
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
	}
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage canoncourt configuration",
	Long: `Manage canoncourt configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CANONCOURT_*, GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY)
3. Config file (~/.canoncourt/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		cfg.LLM.APIKey = "" // never print credentials

		if path := viper.ConfigFileUsed(); path != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(yamlData))

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.canoncourt/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := home + "/.canoncourt"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'canoncourt config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		header := `# Canoncourt Configuration File
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (CANONCOURT_*)
#   3. This config file
#   4. Built-in defaults

`
		footer := `
# API keys (recommended to use environment variables instead):
#   export GROQ_API_KEY=gsk_...
#   export OPENAI_API_KEY=sk-...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export OLLAMA_BASE_URL=http://localhost:11434
`
		content := append([]byte(header), yamlData...)
		content = append(content, []byte(footer)...)
		if err := os.WriteFile(configPath, content, 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n  canoncourt config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
