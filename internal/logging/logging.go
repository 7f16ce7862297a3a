// Package logging builds the zap logger used by boxctl.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joshuapare/boxkit/internal/config"
)

// New builds a logger from cfg. Production config writes JSON to stderr;
// development config writes console output with caller info.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Verbose lowers the level of cfg to debug when on is set.
func Verbose(cfg config.LogConfig, on bool) config.LogConfig {
	if on {
		cfg.Level = zapcore.DebugLevel.String()
	}
	return cfg
}
