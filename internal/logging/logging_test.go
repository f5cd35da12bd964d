package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/posmigrate/internal/logging"
)

func TestNew_json_writesStructuredRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logging.New(&buf, "info", "json").Info("applying migration", slog.String("version", "001"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "applying migration", record["msg"])
	assert.Equal(t, "001", record["version"])
}

func TestNew_text_filtersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}
