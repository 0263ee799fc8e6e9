package common

import (
	"fmt"

	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerService struct {
	Logger *zap.Logger
}

func NewLoggerService(i do.Injector) (*LoggerService, error) {
	level := do.MustInvokeNamed[string](i, "log-level")

	logger, err := NewLogger(level)
	if err != nil {
		return nil, err
	}

	return &LoggerService{Logger: logger}, nil
}

// NewLogger builds a production logger for "production" and a development
// logger otherwise, at the given level (info when unrecognised).
func NewLogger(level string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	if level == "production" {
		config = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func (s *LoggerService) Shutdown() error {
	_ = s.Logger.Sync()

	return nil
}
