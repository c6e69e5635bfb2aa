package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestProductionWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bms.log")
	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Named("installer").Info("Bundle installed", zap.String("bundle", "com.example.notes"))
	logger.Close()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, sonic.UnmarshalString(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "bundlemgr.installer", entry["logger"])
	assert.Equal(t, "Bundle installed", entry["message"])
	assert.Equal(t, "com.example.notes", entry["bundle"])
}

func TestSetLevel(t *testing.T) {
	logger, err := New(Config{Level: "warn", OutputPaths: []string{filepath.Join(t.TempDir(), "l.log")}})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, logger.Level())

	require.NoError(t, logger.SetLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	assert.Error(t, logger.SetLevel("nope"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "json", encodingFormat(DefaultConfig().Development))
	assert.Equal(t, "console", encodingFormat(DevelopmentConfig().Development))
	assert.NotNil(t, NewDefault().Logger)
	assert.NotNil(t, NewDevelopment().Logger)
}
