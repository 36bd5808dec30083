package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// zapLogger adapts a zap logger to gitlab.Logger.
type zapLogger struct {
	logger *zap.Logger
}

// NewLogger returns a development zap logger when verbose is set and a
// no-op logger otherwise.
func NewLogger(verbose bool) (gitlab.Logger, error) {
	if !verbose {
		return &zapLogger{logger: zap.NewNop()}, nil
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &zapLogger{logger: logger}, nil
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, zapFields(fields)...)
}

func zapFields(fields map[string]interface{}) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		result = append(result, zap.Any(key, value))
	}

	return result
}
