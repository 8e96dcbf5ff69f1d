package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

const (
	// DefaultGeminiModel is the default model for Gemini.
	DefaultGeminiModel = "gemini-2.5-pro"

	// DefaultGeminiEndpoint is Gemini's OpenAI-compatible API base.
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai"

	// DefaultValidateTimeout bounds an API key check.
	DefaultValidateTimeout = 15 * time.Second
)

// GeminiProvider talks to Gemini through its OpenAI-compatible endpoint.
type GeminiProvider struct {
	client *openai.Client
	config ProviderConfig
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(config ProviderConfig) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Gemini provider")
	}

	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultGeminiEndpoint
	}
	applyDefaults(&config)

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.Endpoint
	clientConfig.HTTPClient = newHTTPClient(config)

	return &GeminiProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return ProviderNameGemini
}

// Complete sends prompt as a single user message.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	apperrors.LogAPIRequest(ProviderNameGemini, p.config.Endpoint, p.config.Model, len(prompt))
	startTime := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", wrapAPIError(err)
	}

	responseLen := 0
	if len(resp.Choices) > 0 {
		responseLen = len(resp.Choices[0].Message.Content)
	}
	apperrors.LogAPIResponse(ProviderNameGemini, http.StatusOK, responseLen, time.Since(startTime))

	if len(resp.Choices) == 0 {
		return "", apperrors.NewAIProviderError(ProviderNameGemini, errors.New("response contained no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// ValidateKey lists the models visible to the configured key.
func (p *GeminiProvider) ValidateKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultValidateTimeout)
	defer cancel()

	apperrors.LogAPIRequest(ProviderNameGemini, p.config.Endpoint+"/models", p.config.Model, 0)
	if _, err := p.client.ListModels(ctx); err != nil {
		return apperrors.NewInvalidAPIKeyError(ProviderNameGemini, wrapAPIError(err))
	}
	return nil
}

// GeminiKeyValidator checks candidate keys before they are stored.
type GeminiKeyValidator struct {
	Config ProviderConfig
}

// ValidateKey builds a throwaway provider for apiKey and validates it.
func (v GeminiKeyValidator) ValidateKey(ctx context.Context, apiKey string) error {
	cfg := v.Config
	cfg.APIKey = apiKey
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultValidateTimeout
	}
	p, err := NewGeminiProvider(cfg)
	if err != nil {
		return apperrors.NewInvalidAPIKeyError(ProviderNameGemini, err)
	}
	return p.ValidateKey(ctx)
}

// wrapAPIError wraps an OpenAI-compatible API error with a user-friendly message.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			appErr := apperrors.NewAuthenticationError("Gemini")
			appErr.Cause = err
			return appErr
		case http.StatusBadRequest:
			return apperrors.Wrap(err, apperrors.ErrAIProviderFailed, fmt.Sprintf("Gemini invalid request: %s", apiErr.Message))
		default:
			return apperrors.Wrap(err, apperrors.ErrAIProviderFailed, fmt.Sprintf("Gemini API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.Wrap(err, apperrors.ErrAIProviderFailed, fmt.Sprintf("Gemini request failed (status %d)", reqErr.HTTPStatusCode))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err)
	}

	return apperrors.NewAIProviderError("Gemini", err)
}
