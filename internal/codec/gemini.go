package codec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// #region config

// GeminiConfig configures the Gemini API client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // empty = public endpoint
}

// #endregion config

// #region client-struct

// GeminiGenerator calls the Gemini generateContent API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini API client.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// #endregion client-struct

// #region generate

// Generate sends a single-turn prompt to the configured model.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	model := req.Sampling.Model
	if model == "" {
		model = DefaultModel
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Sampling.Temperature),
		TopP:        genai.Ptr(req.Sampling.TopP),
	}
	if req.Sampling.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.Sampling.MaxTokens)
	}
	if req.Sampling.Seed != nil {
		gc.Seed = genai.Ptr(int32(*req.Sampling.Seed))
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), gc)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("gemini generate %s: %w", model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return GenerateResult{}, ErrEmptyResponse
	}
	return GenerateResult{
		Text:    text,
		Model:   model,
		Latency: time.Since(start),
	}, nil
}

// #endregion generate
