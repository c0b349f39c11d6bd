// Package logging builds the process-wide logger for the connector.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the connector logger. Development mode uses the console
// encoder with colored levels; production emits JSON with ISO-8601
// timestamps and a fixed component field, so connector runs are easy to
// isolate in aggregated logs.
func New(development bool) (*zap.Logger, error) {
	cfg := buildConfig(development)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func buildConfig(development bool) zap.Config {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		// A run logs a handful of lines per endpoint; sampling would
		// only ever drop retry context.
		cfg.Sampling = nil
		cfg.InitialFields = map[string]any{"component": "blocklistd"}
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
