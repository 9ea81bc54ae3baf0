package reasoning

import (
	"context"
	"fmt"
	"os"
	"strings"

	geminiEmbed "github.com/cloudwego/eino-ext/components/embedding/gemini"
	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
)

// Provider identifies the reasoning backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"

	// DefaultProvider is used when configuration names none.
	DefaultProvider = ProviderOpenAI
)

// DefaultOllamaURL points at a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// Embedding model defaults for the providers that ship one.
const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
)

// defaultChatModels maps each provider to the model used when configuration
// names none.
var defaultChatModels = map[Provider]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3.2",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.5-flash",
}

// ModelConfig holds what is needed to construct chat and embedding models.
type ModelConfig struct {
	Provider       Provider
	Model          string // blank falls back to the provider default
	EmbeddingModel string // blank falls back to the provider default
	APIKey         string // hosted providers only
	BaseURL        string // ollama only, blank means DefaultOllamaURL
}

// hostedKey returns the API key, or an error naming the provider when none is
// configured. Ollama runs locally and never takes one.
func (cfg ModelConfig) hostedKey() (string, error) {
	if cfg.APIKey == "" {
		return "", fmt.Errorf("%s API key is required", cfg.Provider)
	}
	return cfg.APIKey, nil
}

func (cfg ModelConfig) ollamaURL() string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return DefaultOllamaURL
}

func (cfg ModelConfig) embedModelOr(fallback string) string {
	if cfg.EmbeddingModel != "" {
		return cfg.EmbeddingModel
	}
	return fallback
}

// exportGeminiKey places the key where the Gemini extension picks it up; its
// config struct has no credential field.
func exportGeminiKey(key string) {
	_ = os.Setenv("GOOGLE_API_KEY", key)
	_ = os.Setenv("GEMINI_API_KEY", key)
}

// ParseProvider checks if the given provider string is supported.
func ParseProvider(p string) (Provider, error) {
	norm := Provider(strings.ToLower(strings.TrimSpace(p)))
	if _, ok := defaultChatModels[norm]; ok {
		return norm, nil
	}
	return "", fmt.Errorf("unsupported provider: %s (supported: openai, ollama, anthropic, gemini)", p)
}

// InferProvider guesses the provider from a model name prefix. Returns false
// when the name matches no known family.
func InferProvider(modelID string) (Provider, bool) {
	switch {
	case strings.HasPrefix(modelID, "gpt-"), strings.HasPrefix(modelID, "o1-"), strings.HasPrefix(modelID, "o3-"):
		return ProviderOpenAI, true
	case strings.HasPrefix(modelID, "claude-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(modelID, "gemini-"):
		return ProviderGemini, true
	case strings.HasPrefix(modelID, "llama"), strings.HasPrefix(modelID, "mistral"), strings.HasPrefix(modelID, "qwen"), strings.HasPrefix(modelID, "phi"):
		return ProviderOllama, true
	}
	return "", false
}

// DefaultModelForProvider returns the default chat model for a provider.
func DefaultModelForProvider(p Provider) string {
	return defaultChatModels[p]
}

// NewChatModel constructs the Eino chat model behind Generate calls.
func NewChatModel(ctx context.Context, cfg ModelConfig) (model.BaseChatModel, error) {
	name := cfg.Model
	if name == "" {
		name = DefaultModelForProvider(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{BaseURL: cfg.ollamaURL(), Model: name})

	case ProviderOpenAI:
		key, err := cfg.hostedKey()
		if err != nil {
			return nil, err
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{Model: name, APIKey: key})

	case ProviderAnthropic:
		key, err := cfg.hostedKey()
		if err != nil {
			return nil, err
		}
		return claude.NewChatModel(ctx, &claude.Config{APIKey: key, Model: name})

	case ProviderGemini:
		key, err := cfg.hostedKey()
		if err != nil {
			return nil, err
		}
		exportGeminiKey(key)
		return gemini.NewChatModel(ctx, &gemini.Config{Model: name})
	}
	return nil, fmt.Errorf("unsupported provider: %s (supported: openai, ollama, anthropic, gemini)", cfg.Provider)
}

// NewEmbedder constructs the embedding model for the configured provider.
// Anthropic ships no embedding API and is rejected here.
func NewEmbedder(ctx context.Context, cfg ModelConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{
			BaseURL: cfg.ollamaURL(),
			Model:   cfg.embedModelOr(DefaultOllamaEmbeddingModel),
		})

	case ProviderOpenAI:
		key, err := cfg.hostedKey()
		if err != nil {
			return nil, err
		}
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			Model:  cfg.embedModelOr(DefaultOpenAIEmbeddingModel),
			APIKey: key,
		})

	case ProviderGemini:
		key, err := cfg.hostedKey()
		if err != nil {
			return nil, err
		}
		exportGeminiKey(key)
		return geminiEmbed.NewEmbedder(ctx, &geminiEmbed.EmbeddingConfig{
			Model: cfg.embedModelOr(DefaultGeminiEmbeddingModel),
		})
	}
	return nil, fmt.Errorf("provider %s has no embedding support", cfg.Provider)
}
