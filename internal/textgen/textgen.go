// Package textgen wraps hosted and local LLM APIs behind a prompt-in,
// text-out contract.
package textgen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"zlatko/internal/config"
)

// Generator turns a prompt into free text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted in ai.provider
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderAuto   = "auto"
	ProviderNone   = "none"
)

// New builds the generator selected by cfg.Provider. It returns nil for
// "none"; callers treat a nil generator as "summaries disabled".
func New(cfg config.AIConfig) (Generator, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		client.Timeout = 30 * time.Second
	}

	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, client), nil
	case ProviderOllama:
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel, client), nil
	case ProviderAuto, "":
		ollama := NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel, client)
		if cfg.GeminiAPIKey == "" {
			return ollama, nil
		}
		return NewFallback(ollama, NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, client)), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

// Fallback tries each generator in order until one succeeds
type Fallback struct {
	generators []Generator
}

func NewFallback(generators ...Generator) *Fallback {
	return &Fallback{generators: generators}
}

func (f *Fallback) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, g := range f.generators {
		text, err := g.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		logrus.Warnf("Text generator %d failed, trying next: %v", i, err)
		lastErr = err
	}
	if lastErr == nil {
		return "", fmt.Errorf("no text generator available")
	}
	return "", fmt.Errorf("all text generators failed: %w", lastErr)
}
