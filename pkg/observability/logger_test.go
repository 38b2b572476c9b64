package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:          LogLevelDebug,
		Format:         LogFormatJSON,
		Output:         &buf,
		ServiceName:    "repertoire-worker",
		ServiceVersion: "1.2.0",
	})

	logger.Debug("queue generated", "entries", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "queue generated", record["msg"])
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "repertoire-worker", record["service"])
	assert.Equal(t, "1.2.0", record["version"])
	assert.Equal(t, float64(7), record["entries"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Format: LogFormatText, Output: &buf})

	logger.Info("frozen queue returned")
	assert.Empty(t, buf.String())

	logger.Warn("queue insert conflicted")
	assert.Contains(t, buf.String(), "queue insert conflicted")
}

func TestNewLogger_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatText, Output: &buf}).With("queue", "q-1")

	ctx := WithCorrelationID(context.Background(), "corr-42")
	logger.InfoContext(ctx, "refill appended")

	line := buf.String()
	assert.Contains(t, line, "correlation_id=corr-42")
	assert.Contains(t, line, "queue=q-1")
}

func TestNewLogger_WithGroupKeepsCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}).WithGroup("lock")

	logger.InfoContext(WithCorrelationID(context.Background(), "corr-7"), "acquired", "key", "k")

	assert.True(t, strings.Contains(buf.String(), `"correlation_id":"corr-7"`))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   LogLevel
		want slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogConfigFor(t *testing.T) {
	dev := LogConfigFor("development", "", "")
	assert.Equal(t, LogFormatText, dev.Format)
	assert.Equal(t, LogLevelInfo, dev.Level)
	assert.False(t, dev.AddSource)

	prod := LogConfigFor("production", "warn", "")
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.Equal(t, LogLevelWarn, prod.Level)
	assert.True(t, prod.AddSource)

	override := LogConfigFor("production", "", "text")
	assert.Equal(t, LogFormatText, override.Format)
}
