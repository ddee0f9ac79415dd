package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.LogConfig{Level: "debug", Format: "json", Output: "stderr"})
	assert.Equal(t, &Config{Level: "debug", Format: "json", Output: "stderr"}, cfg)
}

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			l, err := New(&Config{Level: "info", Format: format, Output: "stdout"})
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_TeesExtraCores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	exported, observed := observer.New(zapcore.WarnLevel)

	l, err := New(&Config{Level: "info", Format: "json", Output: path}, exported)
	require.NoError(t, err)

	l.Info("Payment entry submitted", zap.String("path", "invoice"))
	l.Warn("Failed to publish payment events")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Payment entry submitted")
	assert.Contains(t, string(data), "Failed to publish payment events")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Failed to publish payment events", entries[0].Message)
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l, err := NewForEnvironment(env)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info("payment recorded")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"payment recorded"`))
}

func TestNew_FileOutputError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "service.log")

	_, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}
