// Package config defines the tool configuration surface and its loading
// from YAML files and FUNCALIGN_* environment variables. No I/O lives in
// this file, only the data types, defaults and validation.
package config

import (
	"fmt"

	"go.uber.org/zap"

	"func-align/pkg/alignment"
	"func-align/pkg/pairwise"
	"func-align/pkg/parcellation"
)

// LogConfig holds logger construction parameters.
type LogConfig struct {
	// Level is the minimum emitted severity: debug, info, warn or error.
	Level string `mapstructure:"level"`

	// JSON switches from console to JSON encoding.
	JSON bool `mapstructure:"json"`
}

// Config is the full tool configuration. Field names map one-to-one onto
// config-file keys and, upper-cased with a FUNCALIGN_ prefix, onto
// environment variables (nested keys join with "_", e.g.
// FUNCALIGN_LOG_LEVEL).
type Config struct {
	// Method names the alignment variant: identity, permutation,
	// scaled_orthogonal, optimal_transport or ridge.
	Method string `mapstructure:"method"`

	// Pieces is the number of feature regions fitted independently.
	Pieces int `mapstructure:"pieces"`

	// Scaling enables the isotropic scale for scaled_orthogonal.
	Scaling bool `mapstructure:"scaling"`

	// Reg is the entropic regularization for optimal_transport.
	Reg float64 `mapstructure:"reg"`

	// SinkhornIterations bounds the transport plan iterations.
	SinkhornIterations int `mapstructure:"sinkhorn_iterations"`

	// RidgeAlphas is the cross-validated ridge penalty grid.
	RidgeAlphas []float64 `mapstructure:"ridge_alphas"`

	// RidgeCVFolds is the fold count for the ridge penalty search.
	RidgeCVFolds int `mapstructure:"ridge_cv_folds"`

	// Bags is the number of averaged parcellation+fit rounds.
	Bags int `mapstructure:"bags"`

	// Seed fixes the parcellation clustering.
	Seed uint64 `mapstructure:"seed"`

	// Workers bounds fit concurrency. Zero means GOMAXPROCS.
	Workers int `mapstructure:"workers"`

	Log LogConfig `mapstructure:"log"`
}

// Validate checks the structural fields. Method-level numeric knobs are
// validated again by the alignment layer at fit time.
func (c *Config) Validate() error {
	if _, err := alignment.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Pieces < 1 {
		return fmt.Errorf("config: pieces must be at least 1, got %d", c.Pieces)
	}
	if c.Bags < 1 {
		return fmt.Errorf("config: bags must be at least 1, got %d", c.Bags)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	if c.Reg <= 0 {
		return fmt.Errorf("config: reg must be positive, got %g", c.Reg)
	}
	return nil
}

// Options folds the flat configuration into pairwise options.
func (c *Config) Options(mask parcellation.Mask, logger *zap.Logger) pairwise.Options {
	return pairwise.Options{
		Method:             c.Method,
		NPieces:            c.Pieces,
		Scaling:            c.Scaling,
		Reg:                c.Reg,
		SinkhornIterations: c.SinkhornIterations,
		RidgeAlphas:        c.RidgeAlphas,
		RidgeCVFolds:       c.RidgeCVFolds,
		NBags:              c.Bags,
		Seed:               c.Seed,
		Workers:            c.Workers,
		Mask:               mask,
		Logger:             logger,
	}
}
