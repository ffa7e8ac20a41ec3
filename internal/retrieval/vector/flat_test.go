package vector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := Normalize([]float32{3, 4})
	require.InDelta(t, 0.6, v[0], 1e-6)
	require.InDelta(t, 0.8, v[1], 1e-6)
}

func TestFlatIndexSearchOrdersByInnerProduct(t *testing.T) {
	idx := NewFlatIndex("fileA", 2)
	require.NoError(t, idx.Add(0, Normalize([]float32{1, 0})))
	require.NoError(t, idx.Add(1, Normalize([]float32{0, 1})))
	require.NoError(t, idx.Add(2, Normalize([]float32{1, 1})))

	hits, err := idx.Search(Normalize([]float32{1, 0}), 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, 0, hits[0].ordinal)
	require.InDelta(t, 1.0, hits[0].similarity, 1e-6)
}

func TestFlatIndexRejectsDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex("fileA", 3)
	require.Error(t, idx.Add(0, []float32{1, 0}))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := NewFlatIndex("fileA", 2)
	require.NoError(t, idx.Add(0, Normalize([]float32{1, 0})))
	require.NoError(t, idx.Add(1, Normalize([]float32{0, 1})))

	path := t.TempDir() + "/fileA.vec"
	require.NoError(t, idx.Save(path))

	loaded, err := LoadFlatIndex(path)
	require.NoError(t, err)
	require.Equal(t, idx.Len(), loaded.Len())

	hits, err := loaded.Search(Normalize([]float32{0, 1}), 1)
	require.NoError(t, err)
	require.Equal(t, 1, hits[0].ordinal)
}
