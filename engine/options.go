package engine

import (
	"go.uber.org/zap"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Compute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger  *zap.Logger
	Palette []string // series colors, cycled
}

// WithLogger routes engine debug logging to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithPalette overrides the default series color palette.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:  zap.NewNop(),
		Palette: defaultColors,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
