package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jiaz/jiaz/internal/pkg/config"
	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

// ProviderSpec describes one link of the fallback chain.
type ProviderSpec struct {
	Name    string
	Enabled func(block config.Block) bool
	New     func(block config.Block) (Provider, error)
}

// Completion is the cleaned text of the first successful provider.
type Completion struct {
	Text     string
	Provider string
}

// Attempt records one provider failure.
type Attempt struct {
	Provider string
	Err      error
}

// Dispatcher tries providers in order, once each, and returns the first success.
type Dispatcher struct {
	specs []ProviderSpec
}

// NewDispatcher creates a dispatcher over specs, in priority order.
func NewDispatcher(specs ...ProviderSpec) *Dispatcher {
	return &Dispatcher{specs: specs}
}

// Complete sends prompt through the provider chain built for block.
func (d *Dispatcher) Complete(ctx context.Context, prompt string, block config.Block) (*Completion, error) {
	var attempts []Attempt

	for _, spec := range d.specs {
		if spec.Enabled != nil && !spec.Enabled(block) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := d.try(ctx, spec, prompt, block)
		if err == nil {
			apperrors.Debug("completion served by %s", spec.Name)
			return &Completion{Text: RemoveThinkBlocks(text), Provider: spec.Name}, nil
		}

		attempts = append(attempts, Attempt{Provider: spec.Name, Err: err})
		apperrors.LogFallback(spec.Name, err)
	}

	return nil, unavailable(attempts)
}

func (d *Dispatcher) try(ctx context.Context, spec ProviderSpec, prompt string, block config.Block) (string, error) {
	provider, err := spec.New(block)
	if err != nil {
		return "", err
	}
	return provider.Complete(ctx, prompt)
}

func unavailable(attempts []Attempt) *apperrors.AppError {
	if len(attempts) == 0 {
		return apperrors.New(apperrors.ErrLLMUnavailable, "no language model provider is configured").
			WithSuggestion("Set gemini_api_key or start a local Ollama server")
	}

	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.Provider
	}
	last := attempts[len(attempts)-1]

	appErr := apperrors.Wrap(last.Err, apperrors.ErrLLMUnavailable,
		fmt.Sprintf("no language model provider could complete the request (tried %s)", strings.Join(names, ", ")))
	appErr.WithContext("tried", strings.Join(names, ", "))
	for _, a := range attempts {
		appErr.WithContext(a.Provider, a.Err.Error())
	}
	return appErr.WithSuggestion("Check gemini_api_key, or start Ollama with 'ollama serve'")
}

var thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// RemoveThinkBlocks strips reasoning blocks some local models emit.
func RemoveThinkBlocks(text string) string {
	return strings.TrimSpace(thinkBlockPattern.ReplaceAllString(text, ""))
}
