package bm25

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore/internal/core"
)

func chunksFor(fileID string, texts ...string) []core.Chunk {
	out := make([]core.Chunk, len(texts))
	for i, t := range texts {
		out[i] = core.Chunk{
			ChunkID: core.ChunkID(fileID, i),
			FileID:  fileID,
			Ordinal: i,
			Text:    t,
		}
	}
	return out
}

func TestSearchEmptyStoreReturnsEmptyNotError(t *testing.T) {
	s := NewStore()
	hits, err := s.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchRanksByScoreAcrossFiles(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BuildFile("fileA", chunksFor("fileA",
		"apples and oranges are fruit",
		"bananas are also fruit",
	)))
	require.NoError(t, s.BuildFile("fileB", chunksFor("fileB",
		"the weather today is sunny",
	)))

	hits, err := s.Search(context.Background(), "fruit", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		require.Equal(t, core.SourceBM25, h.Source)
		require.Greater(t, h.Score, 0.0)
	}
}

func TestSearchDropsZeroScoreAndRespectsLimit(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.BuildFile("fileA", chunksFor("fileA",
		"alpha beta gamma",
		"delta epsilon zeta",
		"alpha again with beta",
	)))

	hits, err := s.Search(context.Background(), "alpha beta", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, 1, hits[0].Rank)
}
