// Package logging builds the process-wide zap logger. Log output goes to
// stderr so stdout stays free for data.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a logger at the named level ("debug", "info", "warn",
// "error"; empty means info). JSON encoding is meant for pipelines, the
// default console encoding for interactive use.
func New(level string, jsonFormat bool) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	encoding := "console"
	encCfg := zap.NewDevelopmentEncoderConfig()
	if jsonFormat {
		encoding = "json"
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
