package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaz/jiaz/internal/pkg/config"
)

func TestDefaultSpecs_Order(t *testing.T) {
	specs := DefaultSpecs(config.LLMSettings{})

	require.Len(t, specs, 2)
	assert.Equal(t, ProviderNameGemini, specs[0].Name)
	assert.Equal(t, ProviderNameOllama, specs[1].Name)
}

func TestGeminiSpec_Enabled(t *testing.T) {
	spec := GeminiSpec(config.LLMSettings{})

	assert.False(t, spec.Enabled(config.Block{}))
	assert.False(t, spec.Enabled(config.Block{config.KeyGeminiAPIKey: " "}))
	assert.True(t, spec.Enabled(config.Block{config.KeyGeminiAPIKey: "k"}))
}

func TestGeminiSpec_UsesSettings(t *testing.T) {
	settings := config.LLMSettings{
		GeminiEndpoint: "http://gemini.local",
		GeminiModel:    "gemini-flash",
		RequestTimeout: 42 * time.Second,
	}

	p, err := GeminiSpec(settings).New(config.Block{config.KeyGeminiAPIKey: "k"})
	require.NoError(t, err)

	gp, ok := p.(*GeminiProvider)
	require.True(t, ok)
	assert.Equal(t, "http://gemini.local", gp.config.Endpoint)
	assert.Equal(t, "gemini-flash", gp.config.Model)
	assert.Equal(t, 42*time.Second, gp.config.Timeout)
	assert.Equal(t, "k", gp.config.APIKey)
}

func TestOllamaSpec_UsesSettings(t *testing.T) {
	settings := config.LLMSettings{OllamaEndpoint: "http://gpu:11434", OllamaModel: "llama3"}

	p, err := OllamaSpec(settings).New(config.Block{})
	require.NoError(t, err)

	op, ok := p.(*OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://gpu:11434", op.config.Endpoint)
	assert.Equal(t, "llama3", op.config.Model)
	assert.Nil(t, OllamaSpec(settings).Enabled)
}

func TestNewKeyValidator_UsesValidateTimeout(t *testing.T) {
	v := NewKeyValidator(config.LLMSettings{RequestTimeout: time.Minute, ValidateTimeout: 3 * time.Second})

	gv, ok := v.(GeminiKeyValidator)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, gv.Config.Timeout)
}
