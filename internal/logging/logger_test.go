package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithOptions_JSONRenamesErrorKey(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewWithOptions(logging.Options{Level: slog.LevelDebug, Format: logging.FormatJSON, Output: buf})

	logger.Debug("checkpoint failed", "error", "disk full")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk full", entry["err"])
	assert.NotContains(t, entry, "error")
}

func TestNewWithOptions_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewWithOptions(logging.Options{Level: slog.LevelWarn, Output: buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())
}
