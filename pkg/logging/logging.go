package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide logger. Everything downstream receives this
// instance; packages never construct their own.
func New(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if level == "debug" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}
