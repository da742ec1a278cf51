package codec

import (
	"context"
	"errors"
	"time"
)

// #region errors

// ErrEmptyResponse is returned when a generator produces no text.
var ErrEmptyResponse = errors.New("empty generation response")

// #endregion errors

// #region types

// Sampling holds the model and decoding parameters for one call.
type Sampling struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"topP"`
	MaxTokens   int     `json:"maxTokens,omitempty"` // 0 = provider default
	Seed        *int    `json:"seed,omitempty"`
}

// Default sampling values used when a request leaves them unset.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = float32(0.4)
	DefaultTopP        = float32(0.9)
)

// DefaultSampling returns the dashboard defaults.
func DefaultSampling() Sampling {
	return Sampling{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
	}
}

// GenerateRequest is one prompt plus its sampling config.
type GenerateRequest struct {
	Prompt   string
	Sampling Sampling
}

// GenerateResult holds the generated text.
type GenerateResult struct {
	Text    string
	Model   string
	Latency time.Duration
}

// #endregion types

// #region interfaces

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (GenerateResult, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	return f(ctx, req)
}

// #endregion interfaces
