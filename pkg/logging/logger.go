// Package logging builds zap loggers from phish-filter configuration.
package logging

import (
	"fmt"

	"github.com/zpam/phish-filter/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger initializes a logger based on configuration. Verbose forces
// debug level regardless of the configured level.
func InitLogger(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var logConfig zap.Config
	if cfg.Format == "json" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		logConfig.OutputPaths = []string{cfg.File}
		logConfig.ErrorOutputPaths = []string{cfg.File}
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		logConfig.OutputPaths = []string{"stderr"}
	}

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}

// ParseLevel maps a configured level name to a zap level. An empty name
// means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch name {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", name)
	}
}
