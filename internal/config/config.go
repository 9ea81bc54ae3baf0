// Package config resolves stride configuration. Precedence, lowest to
// highest: built-in defaults, the workspace config file, STRIDE_* environment
// variables, then flags bound by the CLI layer.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/store"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. STRIDE_LLM_PROVIDER.
	EnvPrefix = "STRIDE"
	// FileName is the config file stem inside the workspace directory.
	FileName = "config"
)

// Config is the resolved application configuration.
type Config struct {
	Verbose bool `mapstructure:"verbose"`

	Store     StoreConfig     `mapstructure:"store"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=sqlite file"`
	File    string `mapstructure:"file"`
	Format  string `mapstructure:"format" validate:"omitempty,oneof=json yaml toml"`
}

// LLMConfig configures the reasoning collaborator.
type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embeddingModel"`
	APIKey         string `mapstructure:"apiKey"`
	BaseURL        string `mapstructure:"baseURL"`
}

// PolicyConfig configures the activation and deletion guardrails.
type PolicyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig configures anonymous usage reporting. Disabled unless
// explicitly opted in.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	APIKey   string `mapstructure:"apiKey"`
	Endpoint string `mapstructure:"endpoint"`
}

var validate = validator.New()

// Init wires defaults, config files, and environment variables into viper.
// The global file (~/.stride/config.yaml, mainly API keys) loads first and
// the workspace file merges over it. cfgFile bypasses both; workspaceDir may
// be empty when no workspace exists yet.
func Init(cfgFile, workspaceDir string) {
	// A .env in the working directory is a convenience for API keys.
	_ = godotenv.Load()

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			slog.Warn("config file unreadable", "path", cfgFile, "error", err)
		}
		return
	}

	if dir, err := GlobalConfigDir(); err == nil {
		global := filepath.Join(dir, "config.yaml")
		if _, serr := os.Stat(global); serr == nil {
			viper.SetConfigFile(global)
			if rerr := viper.ReadInConfig(); rerr != nil {
				slog.Warn("global config unreadable", "path", global, "error", rerr)
			}
		}
	}

	if workspaceDir == "" {
		return
	}
	viper.SetConfigFile(filepath.Join(workspaceDir, FileName+".yaml"))
	if err := viper.MergeInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("no workspace config file, using defaults and environment")
		} else {
			slog.Warn("workspace config unreadable", "error", err)
		}
		return
	}
	slog.Debug("using config file", "path", viper.ConfigFileUsed())
}

func setDefaults() {
	viper.SetDefault("verbose", false)

	viper.SetDefault("store.backend", store.BackendSQLite)
	viper.SetDefault("store.format", store.FormatJSON)
	viper.SetDefault("store.file", "")

	viper.SetDefault("llm.provider", string(reasoning.DefaultProvider))
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.embeddingModel", "")
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.baseURL", "")
	for _, p := range []reasoning.Provider{
		reasoning.ProviderOpenAI,
		reasoning.ProviderOllama,
		reasoning.ProviderAnthropic,
		reasoning.ProviderGemini,
	} {
		viper.SetDefault(fmt.Sprintf("llm.apiKeys.%s", p), "")
	}

	viper.SetDefault("policy.enabled", true)
	viper.SetDefault("policy.dir", "")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.apiKey", "")
	viper.SetDefault("telemetry.endpoint", "")
}

// Load unmarshals and validates the resolved configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ReasoningConfig resolves the llm section into a model configuration,
// filling provider defaults and the per-provider API key.
func ReasoningConfig() (reasoning.ModelConfig, error) {
	provider, err := reasoning.ParseProvider(viper.GetString("llm.provider"))
	if err != nil {
		return reasoning.ModelConfig{}, err
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = reasoning.DefaultModelForProvider(provider)
	}

	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" && provider == reasoning.ProviderOllama {
		baseURL = reasoning.DefaultOllamaURL
	}

	embeddingModel := viper.GetString("llm.embeddingModel")
	if embeddingModel == "" {
		switch provider {
		case reasoning.ProviderOpenAI:
			embeddingModel = reasoning.DefaultOpenAIEmbeddingModel
		case reasoning.ProviderOllama:
			embeddingModel = reasoning.DefaultOllamaEmbeddingModel
		}
	}

	return reasoning.ModelConfig{
		Provider:       provider,
		Model:          model,
		EmbeddingModel: embeddingModel,
		APIKey:         ResolveAPIKey(provider),
		BaseURL:        baseURL,
	}, nil
}

// ResolveAPIKey returns the best API key for the given provider: per-provider
// config key, then the flat llm.apiKey (honored for OpenAI only, so a
// switched provider never inherits the wrong key), then provider-specific
// environment variables.
func ResolveAPIKey(provider reasoning.Provider) string {
	fromViper := func(path string) string {
		if viper.IsSet(path) {
			return strings.TrimSpace(viper.GetString(path))
		}
		return ""
	}

	if key := fromViper(fmt.Sprintf("llm.apiKeys.%s", provider)); key != "" {
		return key
	}

	if provider == reasoning.ProviderOpenAI {
		if key := fromViper("llm.apiKey"); key != "" {
			return key
		}
	}

	return providerEnvKey(provider)
}

func providerEnvKey(provider reasoning.Provider) string {
	switch provider {
	case reasoning.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case reasoning.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case reasoning.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
