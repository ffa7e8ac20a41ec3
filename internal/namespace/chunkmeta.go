package namespace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragcore/ragcore/internal/core"
)

// chunksJSON mirrors the "<file_id>.chunks.json" sidecar shape from
// SPEC_FULL.md §6.1: index-aligned text and metadata arrays, the same
// shape as spec.md's original "_chunks.json".
type chunksJSON struct {
	Chunks        []string `json:"chunks"`
	ChunkMetadata []struct {
		PageNumber int `json:"page_number"`
	} `json:"chunk_metadata"`
}

// loadChunkMetaForDir reads every "<file_id>.chunks.json" file directly
// under dir and returns the reconstructed core.Chunk slice per file_id,
// index-aligned per spec.md §6.1. A missing directory yields an empty map,
// not an error: a namespace may have indices without this sidecar only in
// degraded/partial states, which the BM25/vector loaders already tolerate
// by skipping files with no matching metadata.
func loadChunkMetaForDir(dir string) map[string][]core.Chunk {
	out := make(map[string][]core.Chunk)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".chunks.json") {
			continue
		}
		fileID := strings.TrimSuffix(e.Name(), ".chunks.json")

		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var parsed chunksJSON
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}

		chunks := make([]core.Chunk, 0, len(parsed.Chunks))
		for i, text := range parsed.Chunks {
			page := 0
			if i < len(parsed.ChunkMetadata) {
				page = parsed.ChunkMetadata[i].PageNumber
			}
			chunks = append(chunks, core.Chunk{
				ChunkID:    core.ChunkID(fileID, i),
				FileID:     fileID,
				Ordinal:    i,
				Text:       text,
				PageNumber: page,
			})
		}
		out[fileID] = chunks
	}

	return out
}
