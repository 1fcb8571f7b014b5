// Package llm adapts hosted language models to the pipeline's Oracle interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/expense-bot/internal/pipeline"
)

// Supported oracle providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrMissingAPIKey is returned when an oracle is built without credentials.
var ErrMissingAPIKey = errors.New("missing API key")

// Options selects and configures an oracle provider.
type Options struct {
	Provider     string
	Model        string
	BaseURL      string // empty means the provider's public endpoint
	GeminiAPIKey string
	OpenAIAPIKey string
}

// New builds the oracle for opts.Provider, filling in the default model.
func New(ctx context.Context, opts Options) (pipeline.Oracle, error) {
	switch opts.Provider {
	case "", ProviderGemini:
		model := opts.Model
		if model == "" {
			model = pipeline.DefaultGeminiModel
		}
		oracle, err := NewGeminiOracle(ctx, GeminiConfig{APIKey: opts.GeminiAPIKey, Model: model, BaseURL: opts.BaseURL})
		if err != nil {
			return nil, err
		}
		return oracle, nil
	case ProviderOpenAI:
		model := opts.Model
		if model == "" {
			model = pipeline.DefaultOpenAIModel
		}
		oracle, err := NewOpenAIOracle(OpenAIConfig{APIKey: opts.OpenAIAPIKey, Model: model, BaseURL: opts.BaseURL})
		if err != nil {
			return nil, err
		}
		return oracle, nil
	default:
		return nil, fmt.Errorf("llm.New: unknown provider %q", opts.Provider)
	}
}
