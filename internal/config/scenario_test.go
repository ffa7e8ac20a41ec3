package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore/internal/core"
)

func TestLoadScenarioMissingFileReturnsBareConfig(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"), "default")
	require.NoError(t, err)
	require.Equal(t, "default", scenario.ScenarioID)
	require.Empty(t, scenario.SystemContent)
}

func TestLoadScenarioParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
scenario_id: support
system_content: "You are a support agent."
keyword_library:
  greeting: ["hello", "hi"]
citation_patterns: ["\\[\\d+\\]"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	scenario, err := LoadScenario(path, "unused")
	require.NoError(t, err)
	require.Equal(t, "support", scenario.ScenarioID)
	require.Equal(t, "You are a support agent.", scenario.SystemContent)
	require.Equal(t, []string{"hello", "hi"}, scenario.KeywordLibrary["greeting"])
}

func TestWatchScenarioInvokesCallbackOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system_content: \"v1\"\n"), 0o644))

	changed := make(chan string, 1)
	w, err := WatchScenario(path, "default", func(sc core.ScenarioConfig) {
		changed <- sc.SystemContent
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("system_content: \"v2\"\n"), 0o644))

	select {
	case got := <-changed:
		require.Equal(t, "v2", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scenario reload callback")
	}
}
