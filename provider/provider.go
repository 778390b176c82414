package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/arash-fz/docent/config"
	openai_provider "github.com/arash-fz/docent/provider/openai"
)

// ErrBackendUnavailable indicates the LLM/embedding backend cannot be
// reached, usually because credentials are missing. The orchestration core
// reports it in answer text rather than propagating it to callers.
var ErrBackendUnavailable = errors.New("llm backend unavailable")

// Provider is the interface the rest of the system uses to talk to the
// language-model backend.
type Provider interface {
	// Complete sends a single-prompt chat completion request.
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
	// CreateEmbedding embeds the given texts, one vector per input.
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
)

// NewProvider builds a provider from config. Groq exposes an
// OpenAI-compatible API, so both types share the same client.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: llm.api_key not set", ErrBackendUnavailable)
	}
	switch cfg.Type {
	case "openai":
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.CompletionModel, cfg.EmbeddingModel, cfg.MaxTokens, cfg.Timeout), nil
	case "groq":
		base := cfg.BaseURL
		if base == "" {
			base = groqBaseURL
		}
		return openai_provider.NewClient(cfg.APIKey, base, cfg.CompletionModel, cfg.EmbeddingModel, cfg.MaxTokens, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider type %q", cfg.Type)
	}
}
