// Package hybrid implements C4, the Hybrid Retriever, per SPEC_FULL.md
// §4.4: concurrent BM25 + vector retrieval fused by Reciprocal Rank Fusion,
// grounded on the teacher's pkg/searcher/fusion.go for the errgroup-based
// concurrent fan-out and graceful single-source degradation shape.
package hybrid

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ragcore/ragcore/internal/core"
)

// BM25Searcher is the capability C4 needs from C2.
type BM25Searcher interface {
	Search(ctx context.Context, query string, k int) ([]core.RetrievalHit, error)
}

// VectorSearcher is the capability C4 needs from C3.
type VectorSearcher interface {
	Search(ctx context.Context, query string, k int) ([]core.RetrievalHit, error)
}

// Weights configures the RRF fusion, per spec.md §4.4.
type Weights struct {
	K            int
	BM25Weight   float64
	VectorWeight float64
}

// DefaultWeights are spec.md §4.4's defaults: K=60, equal 0.5/0.5 weights.
func DefaultWeights() Weights {
	return Weights{K: 60, BM25Weight: 0.5, VectorWeight: 0.5}
}

// Stats are the rolling counters spec.md §4.4 requires C4 to maintain.
type Stats struct {
	TotalQueries int64
	AvgTimeMs    float64
	BM25Only     int64
	VectorOnly   int64
	Hybrid       int64
	Failed       int64
}

// Retriever is C4: it fans out to a BM25Searcher and a VectorSearcher and
// fuses their rankings.
type Retriever struct {
	bm25    BM25Searcher
	vector  VectorSearcher
	weights Weights

	mu    sync.Mutex
	stats Stats
}

// New builds a Retriever over the given BM25 and vector searchers.
func New(bm25 BM25Searcher, vector VectorSearcher, weights Weights) *Retriever {
	return &Retriever{bm25: bm25, vector: vector, weights: weights}
}

// Search runs C2 and C3 concurrently with k'=k*2, fuses by RRF, and returns
// the top-k, per spec.md §4.4's full protocol.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]core.RetrievalHit, error) {
	start := time.Now()
	kPrime := k * 2

	var bm25Hits, vectorHits []core.RetrievalHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.bm25.Search(gctx, query, kPrime)
		if err != nil {
			// BM25 failure is not fatal to C4: vector may still answer.
			return nil
		}
		bm25Hits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := r.vector.Search(gctx, query, kPrime)
		if err != nil {
			return nil
		}
		vectorHits = hits
		return nil
	})
	_ = g.Wait()

	out := r.fuse(bm25Hits, vectorHits, k)
	r.record(start, bm25Hits, vectorHits, out)
	return out, nil
}

func (r *Retriever) fuse(bm25Hits, vectorHits []core.RetrievalHit, k int) []core.RetrievalHit {
	if len(bm25Hits) == 0 && len(vectorHits) == 0 {
		return []core.RetrievalHit{}
	}
	if len(bm25Hits) == 0 {
		return topK(passThrough(vectorHits, core.SourceVector), k)
	}
	if len(vectorHits) == 0 {
		return topK(passThrough(bm25Hits, core.SourceBM25), k)
	}

	type fusedHit struct {
		chunk    core.RetrievalHit
		rrf      float64
		bm25     *float64
		vec      *float64
		bm25Rank *int
		vecRank  *int
	}
	byChunk := make(map[string]*fusedHit)

	for rank, h := range bm25Hits {
		r1 := rank + 1
		score := h.Score
		contrib := r.weights.BM25Weight / float64(r.weights.K+r1)
		fh, ok := byChunk[h.ChunkID]
		if !ok {
			fh = &fusedHit{chunk: h}
			byChunk[h.ChunkID] = fh
		}
		fh.rrf += contrib
		fh.bm25 = &score
		fh.bm25Rank = &r1
	}
	for rank, h := range vectorHits {
		r1 := rank + 1
		score := h.Score
		contrib := r.weights.VectorWeight / float64(r.weights.K+r1)
		fh, ok := byChunk[h.ChunkID]
		if !ok {
			fh = &fusedHit{chunk: h}
			byChunk[h.ChunkID] = fh
		}
		fh.rrf += contrib
		fh.vec = &score
		fh.vecRank = &r1
	}

	fused := make([]*fusedHit, 0, len(byChunk))
	for _, fh := range byChunk {
		fused = append(fused, fh)
	}

	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.rrf != b.rrf {
			return a.rrf > b.rrf
		}
		// Tie-break: higher original BM25 score, then lower (file_id, ordinal).
		abm, bbm := deref(a.bm25), deref(b.bm25)
		if abm != bbm {
			return abm > bbm
		}
		if a.chunk.FileID != b.chunk.FileID {
			return a.chunk.FileID < b.chunk.FileID
		}
		return a.chunk.Ordinal < b.chunk.Ordinal
	})

	if k > len(fused) {
		k = len(fused)
	}
	out := make([]core.RetrievalHit, k)
	for i := 0; i < k; i++ {
		fh := fused[i]
		hit := fh.chunk
		hit.Source = core.SourceHybrid
		hit.Rank = i + 1
		rrf := fh.rrf
		hit.RRFScore = &rrf
		hit.BM25Score = fh.bm25
		hit.VectorScore = fh.vec
		hit.BM25Rank = fh.bm25Rank
		hit.VectorRank = fh.vecRank
		hit.Score = rrf
		out[i] = hit
	}
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func (r *Retriever) record(start time.Time, bm25Hits, vectorHits, out []core.RetrievalHit) {
	elapsed := float64(time.Since(start).Milliseconds())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.TotalQueries++
	n := float64(r.stats.TotalQueries)
	r.stats.AvgTimeMs = r.stats.AvgTimeMs + (elapsed-r.stats.AvgTimeMs)/n

	switch {
	case len(bm25Hits) == 0 && len(vectorHits) == 0:
		r.stats.Failed++
	case len(bm25Hits) == 0:
		r.stats.VectorOnly++
	case len(vectorHits) == 0:
		r.stats.BM25Only++
	default:
		r.stats.Hybrid++
	}
	_ = out
}

// Stats returns a snapshot of the rolling statistics.
func (r *Retriever) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func passThrough(hits []core.RetrievalHit, source core.Source) []core.RetrievalHit {
	out := make([]core.RetrievalHit, len(hits))
	for i, h := range hits {
		h.Source = source
		out[i] = h
	}
	return out
}

func topK(hits []core.RetrievalHit, k int) []core.RetrievalHit {
	if k > len(hits) {
		k = len(hits)
	}
	out := make([]core.RetrievalHit, k)
	for i := 0; i < k; i++ {
		hit := hits[i]
		hit.Rank = i + 1
		out[i] = hit
	}
	return out
}
