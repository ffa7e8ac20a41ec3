// Package vector implements C3, the Vector Retriever, per SPEC_FULL.md
// §4.3: a flat (exact, brute-force) inner-product index over L2-normalized
// float32 vectors. Approximate nearest-neighbor search is explicitly out of
// scope for this component (spec.md §3), so the teacher's coder/hnsw graph
// is not used here; only its persistence shape (gob metadata + atomic
// rename) is carried over, grounded on internal/store/hnsw.go.
package vector

import (
	"fmt"
	"math"
	"sort"
)

// FlatIndex is an exact inner-product index over one file's chunk
// embeddings.
type FlatIndex struct {
	fileID     string
	dimensions int
	ordinals   []int
	vectors    [][]float32
}

// NewFlatIndex creates an empty index for fileID with the given embedding
// dimensionality.
func NewFlatIndex(fileID string, dimensions int) *FlatIndex {
	return &FlatIndex{fileID: fileID, dimensions: dimensions}
}

// Add appends an already-normalized vector for the chunk at ordinal.
func (f *FlatIndex) Add(ordinal int, vec []float32) error {
	if len(vec) != f.dimensions {
		return fmt.Errorf("vector: dimension mismatch for file %s: expected %d, got %d", f.fileID, f.dimensions, len(vec))
	}
	f.ordinals = append(f.ordinals, ordinal)
	f.vectors = append(f.vectors, vec)
	return nil
}

// Len returns the number of vectors in the index.
func (f *FlatIndex) Len() int { return len(f.vectors) }

// scoredOrdinal is an internal search hit before chunk metadata is joined.
type scoredOrdinal struct {
	ordinal    int
	similarity float32
}

// Search returns the top-n inner products against query (assumed
// L2-normalized, so inner product equals cosine similarity), per spec.md
// §4.3. Ties are NOT resolved here: the caller (Store) applies the
// file-id/ordinal tie-break across merged files.
func (f *FlatIndex) Search(query []float32, n int) ([]scoredOrdinal, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("vector: query dimension mismatch for file %s: expected %d, got %d", f.fileID, f.dimensions, len(query))
	}
	if len(f.vectors) == 0 {
		return nil, nil
	}

	scored := make([]scoredOrdinal, len(f.vectors))
	for i, v := range f.vectors {
		scored[i] = scoredOrdinal{ordinal: f.ordinals[i], similarity: innerProduct(query, v)}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].similarity > scored[j].similarity })

	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n], nil
}

func innerProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize L2-normalizes v, matching the C1 Gateway's normalization so
// vectors stored here always satisfy ‖v‖₂ = 1 ± 1e-6 per spec.md §3.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
