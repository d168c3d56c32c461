package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const errorLogLevelFormat = "invalid log level %q: %w"

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
func NewApplicationLogger() (*zap.Logger, error) {
	return NewLeveledLogger("")
}

// NewLeveledLogger constructs the console logger with the provided level.
// An empty level keeps the production default (info).
func NewLeveledLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if trimmedLevel := strings.TrimSpace(level); trimmedLevel != "" {
		parsedLevel, parseError := zapcore.ParseLevel(trimmedLevel)
		if parseError != nil {
			return nil, fmt.Errorf(errorLogLevelFormat, trimmedLevel, parseError)
		}
		config.Level = zap.NewAtomicLevelAt(parsedLevel)
	}
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}
