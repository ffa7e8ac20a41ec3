package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// withStaticProviders points the CLI at a fresh root dir configured with
// the network-free static LLM provider, and resets the package-level flag
// state cobra flags write into, since tests share the process.
func withStaticProviders(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := map[string]any{
		"providers": map[string]any{
			"chat_provider":  "static",
			"embed_provider": "static",
		},
	}
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	rootDir = filepath.Join(dir, "data")
	configPath = cfgPath
	tenantID = "tenant-a"
	scenarioID = "default"
}

func TestPrepareThenAskCommandsSucceed(t *testing.T) {
	withStaticProviders(t)

	prepareCmd := newPrepareCmd()
	prepareCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, prepareCmd.Execute())

	askCmd := newAskCmd()
	out := &bytes.Buffer{}
	askCmd.SetOut(out)
	askCmd.SetArgs([]string{"what", "is", "this", "about?"})
	require.NoError(t, askCmd.Execute())
	require.Contains(t, out.String(), "static-answer")
}

func TestStatusCommandReportsAfterPrepare(t *testing.T) {
	withStaticProviders(t)

	require.NoError(t, newPrepareCmd().Execute())

	statusCmd := newStatusCmd()
	out := &bytes.Buffer{}
	statusCmd.SetOut(out)
	require.NoError(t, statusCmd.Execute())
	require.Contains(t, out.String(), "indices_loaded=true")
}

func TestStatusCommandFailsBeforePrepare(t *testing.T) {
	withStaticProviders(t)

	statusCmd := newStatusCmd()
	statusCmd.SetOut(&bytes.Buffer{})
	require.Error(t, statusCmd.Execute())
}
