package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/stridehq/stride/internal/reasoning"
)

// yamlEscaper rewrites the characters that cannot sit inside a
// double-quoted YAML scalar.
var yamlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quoteYAMLValue wraps value in double quotes when YAML would misread it
// bare. API keys routinely carry colons, hashes, and whitespace.
func quoteYAMLValue(value string) string {
	if !strings.ContainsAny(value, ":{}[]&*#?|-<>=!%@`\"'\n\r\t ") {
		return value
	}
	return `"` + yamlEscaper.Replace(value) + `"`
}

// SaveProviderConfig persists the reasoning provider, model, and API key to
// the global config. The key can be empty for providers like Ollama.
func SaveProviderConfig(provider, model, key string) error {
	if provider == "" {
		return fmt.Errorf("provider is required")
	}
	if model == "" {
		p, err := reasoning.ParseProvider(provider)
		if err != nil {
			return err
		}
		model = reasoning.DefaultModelForProvider(p)
	}

	configDir, err := GlobalConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	configFile := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return writeFreshConfig(configFile, provider, model, key)
	}

	return updateConfigFile(configFile, func(v *viper.Viper) {
		v.Set("llm.provider", provider)
		v.Set("llm.model", model)
		if key != "" {
			v.Set(fmt.Sprintf("llm.apiKeys.%s", provider), key)
		}
	})
}

// writeFreshConfig lays out a first config.yaml by hand so the file opens
// with a comment and the API key stays quoted.
func writeFreshConfig(path, provider, model, key string) error {
	var b strings.Builder
	b.WriteString("# stride global configuration\n")
	fmt.Fprintf(&b, "llm:\n  provider: %s\n  model: %s\n", provider, model)
	if key != "" {
		fmt.Fprintf(&b, "  apiKeys:\n    %s: %s\n", provider, quoteYAMLValue(key))
	}
	return os.WriteFile(path, []byte(b.String()), 0600)
}

// SaveAPIKeyForProvider saves only the API key for a provider without
// changing the configured provider or model.
func SaveAPIKeyForProvider(provider, key string) error {
	switch {
	case provider == "":
		return fmt.Errorf("provider is required")
	case key == "":
		return fmt.Errorf("API key is required")
	}

	configDir, err := GlobalConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	return updateConfigFile(filepath.Join(configDir, "config.yaml"), func(v *viper.Viper) {
		v.Set(fmt.Sprintf("llm.apiKeys.%s", provider), key)
	})
}

// SetWorkspaceValue writes one key into the workspace config file, creating
// the file when missing. Used by `stride config set`.
func SetWorkspaceValue(workspaceDir, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("config key is required")
	}
	return updateConfigFile(filepath.Join(workspaceDir, FileName+".yaml"), func(v *viper.Viper) {
		v.Set(key, value)
	})
}

// updateConfigFile reads a YAML config, applies set, and writes it back.
// Existing keys are preserved; comments are not.
func updateConfigFile(path string, set func(*viper.Viper)) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	switch err := v.ReadInConfig(); {
	case err == nil, os.IsNotExist(err):
		// A missing file starts empty.
	default:
		return err
	}

	set(v)
	return v.WriteConfig()
}
