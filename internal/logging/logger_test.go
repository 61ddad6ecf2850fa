package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/config"
)

func TestNew(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		logger := New(config.LoggingConfig{Level: "info", Format: "text", Output: output}, "1.0.0")
		require.NotNil(t, logger)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNewWithWriter_JSONDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "2.0.0", &buf)

	logger.With("component", "parser").Debug("parsed", "filters", 10)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "apo2cdsp", entry["app"])
	assert.Equal(t, "2.0.0", entry["version"])
	assert.Equal(t, "parser", entry["component"])
	assert.Equal(t, "parsed", entry["msg"])
	assert.InDelta(t, 10, entry["filters"], 0)
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "dev", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	logger.Error("dropped")
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
