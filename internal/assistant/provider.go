package assistant

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	OpenAIProvider       ProviderType = "openai"
	GitHubModelsProvider ProviderType = "github_models"
	OpenRouterProvider   ProviderType = "openrouter"
)

const (
	githubModelsBaseURL = "https://models.inference.ai.azure.com"
	openRouterBaseURL   = "https://openrouter.ai/api/v1"
)

// ProviderConfig selects and authenticates the chat model
type ProviderConfig struct {
	Provider ProviderType `yaml:"provider"`
	Model    string       `yaml:"model"`
	BaseURL  string       `yaml:"base_url"`
	APIKey   string       `yaml:"api_key"`
}

// NewModel initializes the LLM for the configured provider. Every supported
// provider speaks the OpenAI wire protocol.
func NewModel(cfg ProviderConfig) (llms.Model, error) {
	baseURL := cfg.BaseURL
	token := cfg.APIKey

	switch cfg.Provider {
	case OpenAIProvider, "":
		if token == "" {
			token = os.Getenv("OPENAI_API_KEY")
		}
	case GitHubModelsProvider:
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if baseURL == "" {
			baseURL = githubModelsBaseURL
		}
	case OpenRouterProvider:
		if token == "" {
			token = os.Getenv("OPENROUTER_API_KEY")
		}
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}

	if token == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s model: %w", cfg.Provider, err)
	}
	return llm, nil
}
