/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/internal/ui"
)

// configCmd is the parent config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stride configuration",
	Long: `View and manage stride configuration.

Configuration layers, lowest to highest precedence:
  ~/.stride/config.yaml          global defaults
  <workspace>/.stride/config.yaml  per-workspace overrides
  STRIDE_* environment variables

Running without a subcommand shows the resolved configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !viper.IsSet(key) {
			return fmt.Errorf("unknown config key: %s", key)
		}
		value := viper.Get(key)
		if isJSON() {
			return printJSON(map[string]any{"key": key, "value": value})
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one value into the workspace config",
	Long: `Write one configuration value into this workspace's config file.

Examples:
  stride config set llm.provider anthropic
  stride config set store.backend file
  stride config set store.format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := requireWorkspace()
		key, value := args[0], args[1]
		if err := config.SetWorkspaceValue(ws.Dir, key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		if isJSON() {
			return printJSON(map[string]any{"key": key, "value": value})
		}
		fmt.Printf("✓ %s = %s\n", key, value)
		return nil
	},
}

var configTelemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Manage telemetry consent",
	Long: `View and manage stride's anonymous telemetry.

Telemetry is off by default. When turned on it sends:
  - Command name and duration
  - Success/failure and the error type on failure
  - OS, architecture, and CLI version

Goal titles, bodies, file paths, and prompts are never collected. The only
identifier is a random per-workspace id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTelemetryStatus()
	},
}

var configTelemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether telemetry is on",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTelemetryStatus()
	},
}

var configTelemetryOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Turn on anonymous telemetry for this workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTelemetrySet(true)
	},
}

var configTelemetryOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Turn off telemetry for this workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTelemetrySet(false)
	},
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the reasoning collaborator interactively",
	Long: `Pick a reasoning provider and model, and store an API key.

The selection is written to the global config (~/.stride/config.yaml) so it
applies to every workspace. Override per workspace with
'stride config set llm.provider <name>'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigLLM()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configLLMCmd)

	configCmd.AddCommand(configTelemetryCmd)
	configTelemetryCmd.AddCommand(configTelemetryStatusCmd)
	configTelemetryCmd.AddCommand(configTelemetryOnCmd)
	configTelemetryCmd.AddCommand(configTelemetryOffCmd)
}

func runConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	provider := cfg.LLM.Provider
	model := cfg.LLM.Model
	if model == "" {
		if p, perr := reasoning.ParseProvider(provider); perr == nil {
			model = reasoning.DefaultModelForProvider(p) + " (default)"
		}
	}
	keyState := "not set"
	if p, perr := reasoning.ParseProvider(provider); perr == nil && config.ResolveAPIKey(p) != "" {
		keyState = "set"
	}

	if isJSON() {
		type llmStatus struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
			APIKey   string `json:"api_key"`
		}
		type storeStatus struct {
			Backend string `json:"backend"`
			Format  string `json:"format,omitempty"`
		}
		type policyStatus struct {
			Enabled bool   `json:"enabled"`
			Dir     string `json:"dir,omitempty"`
		}
		return printJSON(struct {
			LLM    llmStatus    `json:"llm"`
			Store  storeStatus  `json:"store"`
			Policy policyStatus `json:"policy"`
		}{
			LLM:    llmStatus{Provider: provider, Model: model, APIKey: keyState},
			Store:  storeStatus{Backend: cfg.Store.Backend, Format: cfg.Store.Format},
			Policy: policyStatus{Enabled: cfg.Policy.Enabled, Dir: cfg.Policy.Dir},
		})
	}

	fmt.Println("Stride Configuration")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	fmt.Println("## Reasoning")
	fmt.Printf("  provider: %s\n", provider)
	fmt.Printf("  model:    %s\n", model)
	fmt.Printf("  api key:  %s\n", keyState)
	fmt.Println()
	fmt.Println("## Store")
	fmt.Printf("  backend:  %s\n", cfg.Store.Backend)
	if cfg.Store.Backend == "file" {
		fmt.Printf("  format:   %s\n", cfg.Store.Format)
	}
	fmt.Println()
	fmt.Println("## Policy")
	fmt.Printf("  enabled:  %v\n", cfg.Policy.Enabled)
	if cfg.Policy.Dir != "" {
		fmt.Printf("  dir:      %s\n", cfg.Policy.Dir)
	}

	return nil
}

func runTelemetryStatus() error {
	ws := requireWorkspace()
	consent, err := telemetry.LoadConfig(ws.Dir)
	if err != nil {
		return fmt.Errorf("read telemetry state: %w", err)
	}

	if isJSON() {
		return printJSON(consent)
	}

	if consent.Enabled {
		fmt.Println("📊 Telemetry: on")
		fmt.Printf("   Workspace id: %s\n", consent.AnonymousID)
		fmt.Println()
		fmt.Println("   To turn off: stride config telemetry off")
	} else {
		fmt.Println("📊 Telemetry: off")
		fmt.Println()
		fmt.Println("   To turn on: stride config telemetry on")
	}
	return nil
}

func runTelemetrySet(enabled bool) error {
	ws := requireWorkspace()
	consent, err := telemetry.LoadConfig(ws.Dir)
	if err != nil {
		return fmt.Errorf("read telemetry state: %w", err)
	}
	consent.Enabled = enabled
	if err := consent.Save(ws.Dir); err != nil {
		return fmt.Errorf("save telemetry state: %w", err)
	}

	if isJSON() {
		return printJSON(consent)
	}
	if enabled {
		fmt.Println("✓ Telemetry on. Only anonymous command events are sent.")
	} else {
		fmt.Println("✓ Telemetry off.")
	}
	return nil
}

// runConfigLLM walks through provider, model, and API key and persists the
// result to the global config.
func runConfigLLM() error {
	if !ui.IsInteractive() {
		return fmt.Errorf("'stride config llm' needs an interactive terminal; use 'stride config set llm.provider <name>' instead")
	}

	providers := []reasoning.Provider{
		reasoning.ProviderOpenAI,
		reasoning.ProviderAnthropic,
		reasoning.ProviderGemini,
		reasoning.ProviderOllama,
	}
	labels := make([]string, len(providers))
	for i, p := range providers {
		labels[i] = fmt.Sprintf("%s (default model: %s)", p, reasoning.DefaultModelForProvider(p))
	}

	sel := promptui.Select{
		Label: "Reasoning provider",
		Items: labels,
	}
	idx, _, err := sel.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Println("Cancelled.")
			return nil
		}
		return err
	}
	provider := providers[idx]

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: reasoning.DefaultModelForProvider(provider),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Println("Cancelled.")
			return nil
		}
		return err
	}
	model = strings.TrimSpace(model)

	key := ""
	if provider != reasoning.ProviderOllama {
		keyPrompt := promptui.Prompt{
			Label: fmt.Sprintf("API key for %s (empty to keep using %s_API_KEY)", provider, strings.ToUpper(string(provider))),
			Mask:  '*',
		}
		key, err = keyPrompt.Run()
		if err != nil {
			if err == promptui.ErrInterrupt {
				fmt.Println("Cancelled.")
				return nil
			}
			return err
		}
		key = strings.TrimSpace(key)
	}

	if err := config.SaveProviderConfig(string(provider), model, key); err != nil {
		return fmt.Errorf("save provider config: %w", err)
	}

	fmt.Printf("\n✓ Reasoning collaborator: %s/%s\n", provider, model)
	if provider == reasoning.ProviderOllama {
		fmt.Println("  Ollama needs no API key. Set llm.baseURL if the server is not on localhost:11434.")
	} else if key == "" {
		fmt.Printf("  No key stored; stride will read %s_API_KEY from the environment.\n", strings.ToUpper(string(provider)))
	}
	return nil
}
