package ragcore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore/internal/config"
	"github.com/ragcore/ragcore/internal/core"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	cfg := config.Default()
	cfg.Providers.ChatProvider = "static"
	cfg.Providers.EmbedProvider = "static"

	c, err := New(cfg, t.TempDir())
	require.NoError(t, err)
	c.RegisterScenario("default", core.ScenarioConfig{SystemContent: "You are a helpful assistant."})
	return c
}

func TestProcessQuestionRejectsUnregisteredScenario(t *testing.T) {
	c := newTestCore(t)
	_, err := c.ProcessQuestion(context.Background(), "tenant-a", "unknown-scenario", "hello")
	require.Error(t, err)
}

func TestProcessQuestionRejectsEmptyQuestion(t *testing.T) {
	c := newTestCore(t)
	_, err := c.ProcessQuestion(context.Background(), "tenant-a", "default", "")
	require.Error(t, err)
}

func TestPrepareNamespaceCreatesLayoutAndLoads(t *testing.T) {
	c := newTestCore(t)
	result, err := c.PrepareNamespace(context.Background(), "tenant-a", "default", false)
	require.NoError(t, err)
	require.Equal(t, 0, result.Parsed)
	require.Equal(t, 0, result.Indexed)

	dir := filepath.Join(c.registry.RootDir(), "tenant-a", "default")
	for _, sub := range []string{"bm25", "vector_dbs", "cache"} {
		info, statErr := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, statErr)
		require.True(t, info.IsDir())
	}
}

func TestProcessQuestionAfterPrepareNamespaceSucceeds(t *testing.T) {
	c := newTestCore(t)
	_, err := c.PrepareNamespace(context.Background(), "tenant-a", "default", false)
	require.NoError(t, err)

	record, err := c.ProcessQuestion(context.Background(), "tenant-a", "default", "what is this document about?")
	require.NoError(t, err)
	require.Equal(t, core.ModePureLLM, record.Mode)
}

func TestGetStatusReturnsUnknownBeforePrepare(t *testing.T) {
	c := newTestCore(t)
	_, err := c.GetStatus("tenant-a", "default")
	require.Error(t, err)
}

func TestGetStatusAfterPrepareReportsStats(t *testing.T) {
	c := newTestCore(t)
	_, err := c.PrepareNamespace(context.Background(), "tenant-a", "default", false)
	require.NoError(t, err)

	stats, err := c.GetStatus("tenant-a", "default")
	require.NoError(t, err)
	require.True(t, stats.IndicesLoaded)
	require.Equal(t, 1000, stats.CacheStats.ExactCapacity)
}

func TestGetAgenticStatsMatchesGetStatus(t *testing.T) {
	c := newTestCore(t)
	_, err := c.PrepareNamespace(context.Background(), "tenant-a", "default", false)
	require.NoError(t, err)

	a, err := c.GetStatus("tenant-a", "default")
	require.NoError(t, err)
	b, err := c.GetAgenticStats("tenant-a", "default")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestWatchScenarioFileRegistersScenarioOnLoad(t *testing.T) {
	c := newTestCore(t)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system_content: \"you are a watched scenario\"\n"), 0o644))

	w, err := c.WatchScenarioFile(path, "watched")
	require.NoError(t, err)
	defer w.Close()

	_, err = c.PrepareNamespace(context.Background(), "tenant-a", "watched", false)
	require.NoError(t, err)

	record, err := c.ProcessQuestion(context.Background(), "tenant-a", "watched", "hello")
	require.NoError(t, err)
	require.Equal(t, core.ModePureLLM, record.Mode)
}

func TestWarmCachePrePopulatesLookups(t *testing.T) {
	c := newTestCore(t)
	_, err := c.PrepareNamespace(context.Background(), "tenant-a", "default", false)
	require.NoError(t, err)

	record := core.AnswerRecord{Question: "what is the refund policy?", Answer: "30 days, no questions asked."}
	err = c.WarmCache(context.Background(), "tenant-a", "default", []QAPair{{Question: record.Question, Answer: record}})
	require.NoError(t, err)

	got, err := c.ProcessQuestion(context.Background(), "tenant-a", "default", record.Question)
	require.NoError(t, err)
	require.Equal(t, record.Answer, got.Answer)
}
