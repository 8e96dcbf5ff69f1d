// Package ai provides language model providers and the fallback dispatcher for jiaz.
package ai

import (
	"context"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTemperature is the default temperature for AI generation.
	DefaultTemperature = 0.2

	// DefaultMaxTokens is the default max tokens for AI generation.
	DefaultMaxTokens = 4096

	// DefaultTimeout is the default timeout for one completion request.
	DefaultTimeout = 120 * time.Second

	// DefaultDialTimeout bounds connection setup so an absent local server fails fast.
	DefaultDialTimeout = 5 * time.Second
)

// ProviderConfig contains configuration for an AI provider.
type ProviderConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	DialTimeout time.Duration
}

// Provider completes a single prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// newHTTPClient builds the pooled client shared by the providers.
func newHTTPClient(config ProviderConfig) *http.Client {
	dialTimeout := config.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = DefaultDialTimeout
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// applyDefaults fills zero-valued generation settings.
func applyDefaults(config *ProviderConfig) {
	if config.Temperature == 0 {
		config.Temperature = DefaultTemperature
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
}
