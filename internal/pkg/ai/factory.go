package ai

import (
	"strings"

	"github.com/jiaz/jiaz/internal/pkg/config"
)

// ProviderName constants for supported providers.
const (
	ProviderNameGemini = "gemini"
	ProviderNameOllama = "ollama"
)

// DefaultSpecs returns the standard chain: Gemini when the block carries a
// key, then the local Ollama server.
func DefaultSpecs(settings config.LLMSettings) []ProviderSpec {
	return []ProviderSpec{
		GeminiSpec(settings),
		OllamaSpec(settings),
	}
}

// GeminiSpec is enabled by a non-empty gemini_api_key in the block.
func GeminiSpec(settings config.LLMSettings) ProviderSpec {
	return ProviderSpec{
		Name: ProviderNameGemini,
		Enabled: func(block config.Block) bool {
			return strings.TrimSpace(block[config.KeyGeminiAPIKey]) != ""
		},
		New: func(block config.Block) (Provider, error) {
			cfg := GeminiConfig(settings)
			cfg.APIKey = block[config.KeyGeminiAPIKey]
			return NewGeminiProvider(cfg)
		},
	}
}

// OllamaSpec is always enabled.
func OllamaSpec(settings config.LLMSettings) ProviderSpec {
	return ProviderSpec{
		Name: ProviderNameOllama,
		New: func(config.Block) (Provider, error) {
			return NewOllamaProvider(ProviderConfig{
				Model:       settings.OllamaModel,
				Endpoint:    settings.OllamaEndpoint,
				Temperature: settings.Temperature,
				MaxTokens:   settings.MaxTokens,
				Timeout:     settings.RequestTimeout,
				DialTimeout: settings.DialTimeout,
			})
		},
	}
}

// GeminiConfig converts settings into a keyless Gemini provider config.
func GeminiConfig(settings config.LLMSettings) ProviderConfig {
	return ProviderConfig{
		Model:       settings.GeminiModel,
		Endpoint:    settings.GeminiEndpoint,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		Timeout:     settings.RequestTimeout,
		DialTimeout: settings.DialTimeout,
	}
}

// NewKeyValidator returns the validator used before storing a Gemini key.
func NewKeyValidator(settings config.LLMSettings) config.KeyValidator {
	cfg := GeminiConfig(settings)
	if settings.ValidateTimeout > 0 {
		cfg.Timeout = settings.ValidateTimeout
	}
	return GeminiKeyValidator{Config: cfg}
}
