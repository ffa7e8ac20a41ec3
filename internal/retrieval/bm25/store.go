package bm25

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/ragcore/ragcore/internal/core"
)

type bleveDoc struct {
	Content string `json:"content"`
}

// fileIndex is one Okapi-BM25 scorer over one ingested file's chunks, per
// spec.md §3's "BM25 Index (per file)".
type fileIndex struct {
	fileID string
	index  bleve.Index
	chunks map[int]core.Chunk // ordinal -> chunk
}

// Store holds every loaded per-file BM25 index for a single namespace,
// grounded on original_source/src/retrieval/bm25_retriever.py's
// bm25_indices/chunks_metadata dicts keyed by file_id, and on
// internal/store/bm25.go for the bleve wiring itself.
type Store struct {
	mu    sync.RWMutex
	files map[string]*fileIndex // file_id -> index
}

// NewStore returns an empty Store. An empty Store is valid: spec.md §4.2
// requires Search to return empty, not an error, when nothing is loaded.
func NewStore() *Store {
	return &Store{files: make(map[string]*fileIndex)}
}

// BuildFile constructs an in-memory BM25 index for one file's chunks and
// adds it to the store, replacing any existing index for that file_id.
func (s *Store) BuildFile(fileID string, chunks []core.Chunk) error {
	im, err := buildMapping()
	if err != nil {
		return fmt.Errorf("bm25: build mapping: %w", err)
	}
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return fmt.Errorf("bm25: new index for %s: %w", fileID, err)
	}

	byOrdinal := make(map[int]core.Chunk, len(chunks))
	batch := idx.NewBatch()
	for _, c := range chunks {
		byOrdinal[c.Ordinal] = c
		if err := batch.Index(strconv.Itoa(c.Ordinal), bleveDoc{Content: c.Text}); err != nil {
			return fmt.Errorf("bm25: index chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("bm25: commit batch for %s: %w", fileID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileID] = &fileIndex{fileID: fileID, index: idx, chunks: byOrdinal}
	return nil
}

// Persist writes the file's index to dir/<fileID>.bleve, per
// SPEC_FULL.md §6.1's on-disk layout.
func (s *Store) Persist(dir, fileID string) error {
	s.mu.RLock()
	fi, ok := s.files[fileID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("bm25: unknown file %s", fileID)
	}

	path := filepath.Join(dir, fileID+".bleve")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bm25: create dir: %w", err)
	}

	im, err := buildMapping()
	if err != nil {
		return err
	}
	onDisk, err := bleve.New(path, im)
	if err != nil {
		return fmt.Errorf("bm25: create on-disk index: %w", err)
	}
	defer onDisk.Close()

	batch := onDisk.NewBatch()
	for ordinal, c := range fi.chunks {
		if err := batch.Index(strconv.Itoa(ordinal), bleveDoc{Content: c.Text}); err != nil {
			return err
		}
	}
	return onDisk.Batch(batch)
}

// LoadNamespace loads every "*.bleve" directory under dir into the store,
// deriving file_id from the directory name. Missing dir is not an error
// (namespace simply has no BM25 indices yet).
func (s *Store) LoadNamespace(dir string, chunkMeta map[string][]core.Chunk) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("bm25: read namespace dir: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".bleve") {
			continue
		}
		fileID := strings.TrimSuffix(e.Name(), ".bleve")
		idx, err := bleve.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			// Isolate the failure to this file, matching C3's
			// per-file failure isolation policy; BM25 degrades the
			// same way.
			continue
		}
		byOrdinal := make(map[int]core.Chunk)
		for _, c := range chunkMeta[fileID] {
			byOrdinal[c.Ordinal] = c
		}
		s.mu.Lock()
		s.files[fileID] = &fileIndex{fileID: fileID, index: idx, chunks: byOrdinal}
		s.mu.Unlock()
	}
	return nil
}

// Search returns the top-k chunks across all loaded files by BM25 score,
// per spec.md §4.2. An empty store returns an empty slice and nil error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]core.RetrievalHit, error) {
	s.mu.RLock()
	files := make([]*fileIndex, 0, len(s.files))
	for _, fi := range s.files {
		files = append(files, fi)
	}
	s.mu.RUnlock()

	if len(files) == 0 {
		return []core.RetrievalHit{}, nil
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []core.RetrievalHit{}, nil
	}
	queryStr := strings.Join(tokens, " ")

	type scored struct {
		hit core.RetrievalHit
	}
	var all []scored

	for _, fi := range files {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField("content")
		req := bleve.NewSearchRequest(mq)
		req.Size = len(fi.chunks)
		if req.Size == 0 {
			continue
		}

		res, err := fi.index.SearchInContext(ctx, req)
		if err != nil {
			// Per-file failure isolation, as in C3 (§4.3): the file is
			// skipped (without logging) and the search continues.
			continue
		}
		for _, hit := range res.Hits {
			if hit.Score <= 0 {
				continue
			}
			ordinal, err := strconv.Atoi(hit.ID)
			if err != nil {
				continue
			}
			chunk, ok := fi.chunks[ordinal]
			if !ok {
				continue
			}
			all = append(all, scored{hit: core.RetrievalHit{
				ChunkID:    chunk.ChunkID,
				Text:       chunk.Text,
				PageNumber: chunk.PageNumber,
				FileID:     fi.fileID,
				Ordinal:    ordinal,
				Score:      hit.Score,
				Source:     core.SourceBM25,
			}})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].hit, all[j].hit
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FileID != b.FileID {
			return a.FileID < b.FileID
		}
		return a.Ordinal < b.Ordinal
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]core.RetrievalHit, k)
	for i := 0; i < k; i++ {
		hit := all[i].hit
		hit.Rank = i + 1
		out[i] = hit
	}
	return out, nil
}

// ChunkCount returns the total number of chunks indexed across every
// loaded file, for PrepareNamespace's parsed/indexed counters.
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, fi := range s.files {
		total += len(fi.chunks)
	}
	return total
}

// Close closes every loaded file index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, fi := range s.files {
		if err := fi.index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
