package parser

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderNone   = "none"
)

// Config selects the model behind the parser
type Config struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"` // azure only
}

func DefaultConfig() Config {
	return Config{
		Provider: ProviderOllama,
		Model:    "llama3.2:1b",
		BaseURL:  "http://localhost:11434",
	}
}

// NewModel builds the langchaingo model for cfg
func NewModel(cfg Config) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return llm, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return llm, nil
	case ProviderAzure:
		if cfg.APIKey == "" || cfg.BaseURL == "" {
			return nil, fmt.Errorf("Azure OpenAI configuration missing: api_key and base_url are required")
		}
		apiVersion := cfg.APIVersion
		if apiVersion == "" {
			apiVersion = "2024-02-01"
		}
		llm, err := openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(apiVersion),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
		}
		return llm, nil
	}
	return nil, fmt.Errorf("unknown parser provider %q", cfg.Provider)
}

// New returns the configured parser, or nil when the provider is "none"
func New(cfg Config) (Parser, error) {
	if cfg.Provider == ProviderNone {
		return nil, nil
	}
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOllama
	}
	return NewLLMParser(model, provider, nil), nil
}
