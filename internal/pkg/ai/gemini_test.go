package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(ProviderConfig{})
	assert.Error(t, err)
}

func TestNewGeminiProvider_DefaultValues(t *testing.T) {
	p, err := NewGeminiProvider(ProviderConfig{APIKey: "key"})
	require.NoError(t, err)

	assert.Equal(t, ProviderNameGemini, p.Name())
	assert.Equal(t, DefaultGeminiModel, p.config.Model)
	assert.Equal(t, DefaultGeminiEndpoint, p.config.Endpoint)
	assert.Equal(t, float32(DefaultTemperature), p.config.Temperature)
	assert.Equal(t, DefaultMaxTokens, p.config.MaxTokens)
	assert.Equal(t, DefaultTimeout, p.config.Timeout)
}

func TestGeminiProvider_CompleteSendsPromptAndKey(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer server.Close()

	p, err := NewGeminiProvider(ProviderConfig{APIKey: "key-abc", Endpoint: server.URL, Model: "gemini-test"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, "Bearer key-abc", gotAuth)
	assert.Equal(t, "gemini-test", gotModel)
	assert.Equal(t, "hello", gotPrompt)
}

func TestGeminiProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p, err := NewGeminiProvider(ProviderConfig{APIKey: "k", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "hello")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrAIProviderFailed))
}

func TestGeminiProvider_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p, err := NewGeminiProvider(ProviderConfig{APIKey: "k", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "hello")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrAuthenticationFailed))
}

func TestGeminiKeyValidator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"API key not valid","type":"invalid_request_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"models/gemini-2.5-pro","object":"model"}]}`))
	}))
	defer server.Close()

	v := GeminiKeyValidator{Config: ProviderConfig{Endpoint: server.URL}}

	assert.NoError(t, v.ValidateKey(context.Background(), "good"))

	err := v.ValidateKey(context.Background(), "bad")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidAPIKey))

	err = v.ValidateKey(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidAPIKey))
}
