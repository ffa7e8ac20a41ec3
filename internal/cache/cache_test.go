package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore/internal/core"
)

type stubEmbedder struct {
	vec [][]float32
	err error
}

func (s stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec[0]
	}
	return out, nil
}

func TestLookupMissOnEmptyCache(t *testing.T) {
	c := New(DefaultConfig())
	_, ok := c.Lookup(context.Background(), nil, "hello")
	require.False(t, ok)
}

func TestStoreThenExactLookupHits(t *testing.T) {
	c := New(DefaultConfig())
	record := core.AnswerRecord{Question: "q", Answer: "a"}
	c.Store(context.Background(), nil, "what is go", record, false)

	got, ok := c.Lookup(context.Background(), nil, "what is go")
	require.True(t, ok)
	require.Equal(t, "a", got.Answer)
}

func TestExactLookupMissesOnDifferentQuestion(t *testing.T) {
	c := New(DefaultConfig())
	c.Store(context.Background(), nil, "what is go", core.AnswerRecord{Answer: "a"}, false)

	_, ok := c.Lookup(context.Background(), nil, "what is rust")
	require.False(t, ok)
}

func TestExactEntryExpiresAfterTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExactTTL = -1 * time.Second // already expired
	c := New(cfg)
	c.Store(context.Background(), nil, "q", core.AnswerRecord{Answer: "a"}, false)

	_, ok := c.Lookup(context.Background(), nil, "q")
	require.False(t, ok)
}

func TestSemanticLookupHitsAboveThreshold(t *testing.T) {
	embedder := stubEmbedder{vec: [][]float32{{1, 0, 0}}}
	c := New(DefaultConfig())
	c.Store(context.Background(), embedder, "what is go programming", core.AnswerRecord{Answer: "go-answer"}, true)

	got, ok := c.Lookup(context.Background(), embedder, "a completely different question text")
	require.True(t, ok)
	require.Equal(t, "go-answer", got.Answer)
}

func TestSemanticLookupMissesBelowThreshold(t *testing.T) {
	stored := stubEmbedder{vec: [][]float32{{1, 0, 0}}}
	c := New(DefaultConfig())
	c.Store(context.Background(), stored, "question one", core.AnswerRecord{Answer: "a"}, true)

	query := stubEmbedder{vec: [][]float32{{0, 1, 0}}}
	_, ok := c.Lookup(context.Background(), query, "question two")
	require.False(t, ok)
}

func TestStoreSkipsSemanticWriteOnEmbedFailure(t *testing.T) {
	failing := stubEmbedder{err: context.DeadlineExceeded}
	c := New(DefaultConfig())
	c.Store(context.Background(), failing, "question one", core.AnswerRecord{Answer: "a"}, true)

	_, ok := c.semanticLookup(context.Background(), stubEmbedder{vec: [][]float32{{1, 0, 0}}}, "question two")
	require.False(t, ok)
}

func TestSemanticEntryExpiresAfterTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SemanticTTL = -1 * time.Second
	embedder := stubEmbedder{vec: [][]float32{{1, 0, 0}}}
	c := New(cfg)
	c.Store(context.Background(), embedder, "question one", core.AnswerRecord{Answer: "a"}, true)

	_, ok := c.Lookup(context.Background(), embedder, "question two")
	require.False(t, ok)
}

func TestExactCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 2
	c := New(cfg)
	c.Store(context.Background(), nil, "q1", core.AnswerRecord{Answer: "a1"}, false)
	c.Store(context.Background(), nil, "q2", core.AnswerRecord{Answer: "a2"}, false)
	c.Store(context.Background(), nil, "q3", core.AnswerRecord{Answer: "a3"}, false)

	_, ok := c.Lookup(context.Background(), nil, "q1")
	require.False(t, ok)
	got, ok := c.Lookup(context.Background(), nil, "q3")
	require.True(t, ok)
	require.Equal(t, "a3", got.Answer)
}

func TestStatsReportsOccupancyAndCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 10
	c := New(cfg)
	c.Store(context.Background(), nil, "q1", core.AnswerRecord{Answer: "a1"}, false)

	stats := c.Stats()
	require.Equal(t, 1, stats.ExactEntries)
	require.Equal(t, 0, stats.SemanticEntries)
	require.Equal(t, 10, stats.ExactCapacity)
	require.Equal(t, 5, stats.SemanticCapacity)
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	sim := cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
	require.InDelta(t, 1.0, sim, 1e-6)
}

func TestCosineSimilarityOrthogonalVectorsIsZero(t *testing.T) {
	sim := cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.InDelta(t, 0.0, sim, 1e-6)
}
