package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiConfig configures a GeminiOracle. BaseURL and HTTPClient are only
// needed to point the client somewhere other than the public API.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiOracle sends prompts to a Gemini model through the GenAI SDK.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// NewGeminiOracle creates the GenAI client once; it is safe for concurrent use.
func NewGeminiOracle(ctx context.Context, cfg GeminiConfig) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewGeminiOracle: %w", ErrMissingAPIKey)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiOracle: create genai client: %w", err)
	}

	return &GeminiOracle{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Generate implements pipeline.Oracle.
func (g *GeminiOracle) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GeminiOracle.Generate: generate content: %w", err)
	}
	return resp.Text(), nil
}

// Name implements pipeline.Oracle.
func (g *GeminiOracle) Name() string {
	return ProviderGemini + ":" + g.model
}
