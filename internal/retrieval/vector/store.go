package vector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ragcore/ragcore/internal/core"
)

// Embedder is the minimal capability Store needs from C1 to embed a query;
// it is satisfied by *llm.httpProvider's Gateway without this package
// importing llm's full surface, matching the "accept interfaces" idiom the
// teacher follows for its VectorStore/Embedder seam.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// chunkMeta is the minimum per-chunk metadata the vector retriever needs to
// attach to a hit, per spec.md §4.3's "aligned metadata" requirement.
type chunkMeta struct {
	ChunkID    string
	PageNumber int
	Text       string
}

// Store holds every loaded per-file flat index for one namespace.
type Store struct {
	mu            sync.RWMutex
	files         map[string]*FlatIndex
	meta          map[string]map[int]chunkMeta // file_id -> ordinal -> meta
	minSimilarity float32
}

// NewStore returns an empty Store with the given default similarity floor.
func NewStore(minSimilarity float32) *Store {
	return &Store{
		files:         make(map[string]*FlatIndex),
		meta:          make(map[string]map[int]chunkMeta),
		minSimilarity: minSimilarity,
	}
}

// AddFile registers a built FlatIndex plus its aligned chunk metadata.
func (s *Store) AddFile(fileID string, idx *FlatIndex, chunks []core.Chunk) {
	byOrdinal := make(map[int]chunkMeta, len(chunks))
	for _, c := range chunks {
		byOrdinal[c.Ordinal] = chunkMeta{ChunkID: c.ChunkID, PageNumber: c.PageNumber, Text: c.Text}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileID] = idx
	s.meta[fileID] = byOrdinal
}

// LoadNamespace loads every "*.vec" file under dir, isolating individual
// file load failures per spec.md §4.3 ("if index read fails for one file,
// log and continue; return results from the surviving files").
func (s *Store) LoadNamespace(dir string, chunkMetaByFile map[string][]core.Chunk) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vector: read namespace dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".vec") {
			continue
		}
		fileID := strings.TrimSuffix(e.Name(), ".vec")
		idx, err := LoadFlatIndex(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Warn("vector_index_load_failed", slog.String("file_id", fileID), slog.String("error", err.Error()))
			continue
		}
		s.AddFile(fileID, idx, chunkMetaByFile[fileID])
	}
	return nil
}

// Search embeds query via embedder, then returns the top-k chunks by
// cosine similarity across every loaded file, per spec.md §4.3.
func (s *Store) Search(ctx context.Context, embedder Embedder, query string, k int) ([]core.RetrievalHit, error) {
	s.mu.RLock()
	files := make(map[string]*FlatIndex, len(s.files))
	for id, idx := range s.files {
		files[id] = idx
	}
	meta := s.meta
	s.mu.RUnlock()

	if len(files) == 0 {
		return []core.RetrievalHit{}, nil
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("vector: embed query: %w", err)
	}
	if len(vecs) == 0 {
		return []core.RetrievalHit{}, nil
	}
	qv := Normalize(vecs[0])

	perFileLimit := k * 2

	var all []core.RetrievalHit
	for fileID, idx := range files {
		n := perFileLimit
		if n > idx.Len() {
			n = idx.Len()
		}
		hits, err := idx.Search(qv, n)
		if err != nil {
			slog.Warn("vector_search_failed", slog.String("file_id", fileID), slog.String("error", err.Error()))
			continue
		}
		for _, h := range hits {
			if h.similarity < s.minSimilarity {
				continue
			}
			cm := meta[fileID][h.ordinal]
			all = append(all, core.RetrievalHit{
				ChunkID:    cm.ChunkID,
				PageNumber: cm.PageNumber,
				Text:       cm.Text,
				FileID:     fileID,
				Ordinal:    h.ordinal,
				Score:      float64(h.similarity),
				Source:     core.SourceVector,
			})
		}
	}

	sortVectorHits(all)

	if k > len(all) {
		k = len(all)
	}
	out := make([]core.RetrievalHit, k)
	for i := 0; i < k; i++ {
		hit := all[i]
		hit.Rank = i + 1
		out[i] = hit
	}
	return out, nil
}

// sortVectorHits applies spec.md §4.3's tie-break: descending similarity,
// then larger file_id, then smaller ordinal (deliberately the inverse of
// C2's lower-file_id tie-break, so fused rankings behave well per §4.4).
func sortVectorHits(hits []core.RetrievalHit) {
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FileID != b.FileID {
			return a.FileID > b.FileID
		}
		return a.Ordinal < b.Ordinal
	})
}
