package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesJSONToPipes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("rendered", "sfen", "9/9/9/9/9/9/9/9/9 b - 1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rendered", rec["msg"])
	assert.Equal(t, "9/9/9/9/9/9/9/9/9 b - 1", rec["sfen"])
	assert.False(t, IsTerminal(&buf))
}

func TestSetupFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "server.log")
	logger, closeLog, err := Setup(path, "warn")
	require.NoError(t, err)
	logger.Info("skipped")
	logger.Warn("bad lastmove", "lm", "7776ZZ")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "skipped")
	assert.Contains(t, string(data), "7776ZZ")

	_, _, err = Setup(filepath.Join(t.TempDir(), "missing", "x.log"), "info")
	assert.Error(t, err)
	_, _, err = Setup("", "loud")
	assert.Error(t, err)
}
