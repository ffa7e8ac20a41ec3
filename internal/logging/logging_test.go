package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level:         "debug",
		FilePath:      filepath.Join(dir, "ragcore.log"),
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("namespace loaded", "tenant_id", "t1", "scenario_id", "tender")

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "namespace loaded")
	require.Contains(t, string(data), "t1")
}

func TestDefaultAndDebugConfigLevels(t *testing.T) {
	require.Equal(t, DefaultConfig().Level, "info")
	require.Equal(t, DebugConfig().Level, "debug")
}

func TestConfigFromOverridesLevelAndPath(t *testing.T) {
	cfg := ConfigFrom(RagcoreLoggingConfig{Level: "debug", FilePath: "/tmp/ragcore-custom.log"})
	require.Equal(t, "debug", cfg.Level)
	require.Equal(t, "/tmp/ragcore-custom.log", cfg.FilePath)
}

func TestConfigFromFallsBackToDefaultsWhenEmpty(t *testing.T) {
	cfg := ConfigFrom(RagcoreLoggingConfig{})
	require.Equal(t, DefaultConfig().Level, cfg.Level)
	require.Equal(t, DefaultLogPath(), cfg.FilePath)
}
