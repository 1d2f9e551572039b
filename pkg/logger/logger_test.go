package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	l, err := New(&Config{Level: "info", Output: OutputFile, Format: "json", FilePath: path})
	require.NoError(t, err)

	l.WithComponent("test").Info("hello", SetupID("abc"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"setup_id":"abc"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestFileWriter_Rotates(t *testing.T) {
	dir := t.TempDir()
	w, err := newFileWriter(&Config{FilePath: filepath.Join(dir, "app.log"), FileMaxSizeMB: 1})
	require.NoError(t, err)
	w.maxBytes = 16
	w.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "app-2026-01-02T03-04-05.000.log"))
	assert.NoError(t, err)

	current, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(current))
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded")
	assert.NoError(t, l.Close())
}
