package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/shreeharini-261/ARIVAI-Research/internal/codec"
	"github.com/shreeharini-261/ARIVAI-Research/internal/eval"
	"github.com/shreeharini-261/ARIVAI-Research/internal/orchestrator"
)

// #region config

// Config is the process configuration shared by every binary.
type Config struct {
	DBPath      string   `env:"CYCLELAB_DB" envDefault:"cyclelab.db"`
	HTTPAddr    string   `env:"CYCLELAB_HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"CYCLELAB_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Generation. CodecAddr, when set, routes generation through a sidecar
	// instead of calling Gemini directly.
	GeminiAPIKey    string  `env:"GEMINI_API_KEY"`
	GeminiBaseURL   string  `env:"GEMINI_BASE_URL"`
	Model           string  `env:"CYCLELAB_MODEL" envDefault:"gemini-2.5-flash"`
	Temperature     float32 `env:"CYCLELAB_TEMPERATURE" envDefault:"0.4"`
	TopP            float32 `env:"CYCLELAB_TOP_P" envDefault:"0.9"`
	CodecAddr       string  `env:"CODEC_ADDR"`
	CodecListenAddr string  `env:"CODEC_LISTEN_ADDR"`

	GenerateTimeout time.Duration `env:"CYCLELAB_GENERATE_TIMEOUT" envDefault:"60s"`
	MaxParallel     int           `env:"CYCLELAB_MAX_PARALLEL" envDefault:"2"`
	HistoryLimit    int           `env:"CYCLELAB_HISTORY_LIMIT" envDefault:"5"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads the configuration from vars instead of the environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges env parsing cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("CYCLELAB_TEMPERATURE=%v not in [0, 2]", c.Temperature))
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("CYCLELAB_TOP_P=%v not in (0, 1]", c.TopP))
	}
	if c.MaxParallel < 1 {
		errs = append(errs, fmt.Errorf("CYCLELAB_MAX_PARALLEL=%d must be at least 1", c.MaxParallel))
	}
	if c.GenerateTimeout < 0 {
		errs = append(errs, fmt.Errorf("CYCLELAB_GENERATE_TIMEOUT=%s is negative", c.GenerateTimeout))
	}
	return errors.Join(errs...)
}

// #endregion config

// #region derived

// Sampling returns the default sampling config for requests that omit one.
func (c Config) Sampling() codec.Sampling {
	return codec.Sampling{
		Model:       c.Model,
		Temperature: c.Temperature,
		TopP:        c.TopP,
	}
}

// OrchestratorOptions returns run options.
func (c Config) OrchestratorOptions() orchestrator.Options {
	return orchestrator.Options{
		MaxParallel:     c.MaxParallel,
		GenerateTimeout: c.GenerateTimeout,
		HistoryLimit:    c.HistoryLimit,
		Eval:            eval.DefaultEvalConfig(),
	}
}

// ErrNoGenerator is returned when neither a sidecar nor an API key is set.
var ErrNoGenerator = errors.New("no generator configured: set CODEC_ADDR or GEMINI_API_KEY")

// NewGenerator connects the configured generator. The returned close
// function is non-nil whenever err is nil.
func (c Config) NewGenerator(ctx context.Context) (codec.Generator, func() error, error) {
	if c.CodecAddr != "" {
		g, err := codec.NewGRPCGenerator(c.CodecAddr)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[CONFIG] generator=sidecar addr=%s", c.CodecAddr)
		return g, g.Close, nil
	}
	if c.GeminiAPIKey != "" {
		g, err := codec.NewGeminiGenerator(ctx, codec.GeminiConfig{APIKey: c.GeminiAPIKey, BaseURL: c.GeminiBaseURL})
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[CONFIG] generator=gemini model=%s", c.Model)
		return g, func() error { return nil }, nil
	}
	return nil, nil, ErrNoGenerator
}

// #endregion derived
