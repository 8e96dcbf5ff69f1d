package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

const (
	// DefaultOllamaModel is the default model for Ollama.
	DefaultOllamaModel = "qwen3:14b"

	// DefaultOllamaEndpoint is the default API endpoint for Ollama.
	DefaultOllamaEndpoint = "http://localhost:11434"

	// OllamaAPIPath is the API path for chat completions.
	OllamaAPIPath = "/api/chat"
)

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	client *resty.Client
	config ProviderConfig
}

// OllamaChatRequest is the body of POST /api/chat. Stream stays false so the
// reply arrives as one JSON object.
type OllamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *OllamaOptions  `json:"options,omitempty"`
}

// OllamaMessage represents a message in the Ollama chat API.
type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaOptions represents optional parameters for Ollama requests.
type OllamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaChatResponse represents a response from the Ollama chat API.
type OllamaChatResponse struct {
	Model     string        `json:"model"`
	CreatedAt string        `json:"created_at"`
	Message   OllamaMessage `json:"message"`
	Done      bool          `json:"done"`
	Error     string        `json:"error,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(config ProviderConfig) (*OllamaProvider, error) {
	if err := validateOllamaConfig(config); err != nil {
		return nil, err
	}

	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultOllamaEndpoint
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	applyDefaults(&config)

	client := resty.NewWithClient(newHTTPClient(config)).
		SetBaseURL(config.Endpoint).
		SetHeader("Accept", "application/json").
		SetDisableWarn(true)

	return &OllamaProvider{client: client, config: config}, nil
}

// validateOllamaConfig validates the Ollama provider configuration.
// Ollama is local and needs no API key.
func validateOllamaConfig(config ProviderConfig) error {
	if config.Endpoint == "" {
		return nil
	}
	if strings.HasPrefix(config.Endpoint, "http://") || strings.HasPrefix(config.Endpoint, "https://") {
		return nil
	}
	return errors.New("endpoint must start with http:// or https://")
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return ProviderNameOllama
}

// Complete sends prompt as a single user message and returns the reply.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	chatReq := OllamaChatRequest{
		Model:    p.config.Model,
		Messages: []OllamaMessage{{Role: "user", Content: prompt}},
		Options: &OllamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.MaxTokens,
		},
	}

	apperrors.LogAPIRequest(ProviderNameOllama, p.config.Endpoint, p.config.Model, len(prompt))
	start := time.Now()

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(chatReq).
		Post(OllamaAPIPath)
	if err != nil {
		return "", classifyOllamaError(ctx, err)
	}
	apperrors.LogAPIResponse(ProviderNameOllama, resp.StatusCode(), len(resp.Body()), time.Since(start))

	if resp.IsError() {
		return "", ollamaStatusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var chatResp OllamaChatResponse
	if err := json.Unmarshal(resp.Body(), &chatResp); err != nil {
		return "", apperrors.NewAIProviderError("Ollama", fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != "" {
		return "", apperrors.NewAIProviderError("Ollama", errors.New(chatResp.Error))
	}
	return chatResp.Message.Content, nil
}

// ollamaStatusError maps a non-2xx reply to an AIProviderFailed error.
func ollamaStatusError(status int, body string) error {
	cause := fmt.Errorf("ollama API error (status %d): %s", status, body)
	switch status {
	case http.StatusNotFound:
		return apperrors.Wrap(cause, apperrors.ErrAIProviderFailed, "Ollama model not found").
			WithSuggestion("Pull the model with 'ollama pull <model>' or set llm.ollama_model")
	case http.StatusServiceUnavailable:
		return apperrors.Wrap(cause, apperrors.ErrAIProviderFailed, "Ollama service unavailable").
			WithSuggestion("Start Ollama with 'ollama serve'")
	default:
		return apperrors.Wrap(cause, apperrors.ErrAIProviderFailed, fmt.Sprintf("Ollama request failed with status %d", status))
	}
}

// classifyOllamaError turns transport failures into timeout or network errors.
func classifyOllamaError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError(err).
			WithSuggestion("Check that Ollama is running or raise llm.request_timeout")
	}
	if ctx.Err() != nil {
		return apperrors.NewAIProviderError("Ollama", ctx.Err())
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		appErr := apperrors.NewNetworkError(err)
		appErr.Message = "cannot connect to Ollama at " + endpointOf(err)
		return appErr.WithSuggestion("Start Ollama with 'ollama serve' or set JIAZ_LLM_OLLAMA_ENDPOINT")
	}
	return apperrors.NewAIProviderError("Ollama", err)
}

func endpointOf(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.URL
	}
	return "the configured endpoint"
}
