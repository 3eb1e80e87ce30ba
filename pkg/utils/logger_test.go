package utils

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_KeyValues(t *testing.T) {
	require.NoError(t, InitLogger(LoggerOptions{Quiet: true, NoColor: true, Debug: true}))
	t.Cleanup(Close)

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("tool executed", "tool", "fetch_pilates_exercises", "duration_ms", 12)
	Debug("dangling key", "orphan")

	out := buf.String()
	assert.Contains(t, out, "tool executed")
	assert.Contains(t, out, "tool:fetch_pilates_exercises")
	assert.Contains(t, out, "duration_ms:12")
	assert.Contains(t, out, "orphan:")
}

func TestLogger_DebugFilteredByLevel(t *testing.T) {
	require.NoError(t, InitLogger(LoggerOptions{Quiet: true, NoColor: true}))
	t.Cleanup(Close)

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("hidden")
	Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(LoggerOptions{Dir: dir, Quiet: true, NoColor: true}))
	Info("written to file")
	Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "pilates-")
}
