package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, 5, cfg.Retrieval.RetrieveK)
	require.Equal(t, 60, cfg.Retrieval.RRFConstant)
	require.InDelta(t, 0.5, cfg.Retrieval.BM25Weight, 1e-9)
	require.InDelta(t, 0.5, cfg.Retrieval.VectorWeight, 1e-9)
	require.InDelta(t, 0.5, cfg.Retrieval.MinSimilarity, 1e-9)
	require.Equal(t, 3, cfg.Navigator.MaxRounds)
	require.Equal(t, 2000, cfg.Navigator.TargetTokens)
	require.InDelta(t, 0.95, cfg.Cache.SemanticThreshold, 1e-9)
	require.Equal(t, 1000, cfg.Cache.MaxSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Retrieval.RetrieveK, cfg.Retrieval.RetrieveK)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "retrieval:\n  retrieve_k: 8\n  bm25_weight: 0.3\n  vector_weight: 0.7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Retrieval.RetrieveK)
	require.InDelta(t, 0.3, cfg.Retrieval.BM25Weight, 1e-9)
}

func TestValidateRejectsBothRetrieversDisabled(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.UseBM25 = false
	cfg.Retrieval.UseVector = false
	require.Error(t, cfg.Validate())
}
