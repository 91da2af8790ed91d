package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		known    bool
	}{
		{"ERROR", LogLevelError, true},
		{"warn", LogLevelWarn, true},
		{" debug ", LogLevelDebug, true},
		{"TRACE", LogLevelTrace, true},
		{"", LogLevelInfo, false},
		{"verbose", LogLevelInfo, false},
	}

	for _, tt := range tests {
		level, known := ParseLogLevel(tt.input)
		assert.Equal(t, tt.expected, level, tt.input)
		assert.Equal(t, tt.known, known, tt.input)
	}
}

func TestLoggerFiltersByLevelAndTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(LogLevelInfo, &buf).With("Normalizer")

	logger.Debug("hidden %d", 1)
	logger.Info("committed %d failure modes", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] [Normalizer] committed 3 failure modes")
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}
