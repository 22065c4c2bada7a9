package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger creates a zap logger with the given level and encoding ("console" or "json").
func newLogger(level, encoding string) (*zap.Logger, error) {
	var logLevel zapcore.Level
	switch level {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "info":
		logLevel = zapcore.InfoLevel
	case "warn":
		logLevel = zapcore.WarnLevel
	case "error":
		logLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("Unknown logLevel: %v", level)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if encoding == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	logConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(logLevel),
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return logConfig.Build()
}
