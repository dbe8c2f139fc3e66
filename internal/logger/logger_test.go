package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Config{Level: "info", Console: true, Output: &buf})
		require.NoError(t, err)
		defer l.Close()

		component := l.Component("test")
		component.Info().Msg("hello")
		root := l.GetZerolog()
		root.Debug().Msg("hidden")

		assert.Contains(t, buf.String(), `"component":"test"`)
		assert.Contains(t, buf.String(), "hello")
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "agentq.log")

		l, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)
		root := l.GetZerolog()
		root.Debug().Msg("test message")
		require.NoError(t, l.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
	})

	t.Run("rotating file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "agentq.log")

		l, err := New(Config{Level: "info", File: logFile, MaxSize: 1})
		require.NoError(t, err)
		defer l.Close()

		_, ok := l.file.(*RotatingWriter)
		assert.True(t, ok)
	})

	t.Run("redaction", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Config{Level: "info", Console: true, Redaction: true, Output: &buf})
		require.NoError(t, err)
		defer l.Close()

		root := l.GetZerolog()
		root.Info().Str("auth", "Bearer abc123.def456").Msg("calling endpoint")

		assert.NotContains(t, buf.String(), "abc123")
		assert.Contains(t, buf.String(), "[REDACTED]")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		l, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, zerolog.InfoLevel, l.GetZerolog().GetLevel())
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.Console)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.True(t, cfg.Compress)
}
