package vector

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// onDiskIndex is the gob-encoded representation of a FlatIndex, per
// SPEC_FULL.md §6.1's ".vec" format and grounded on internal/store/hnsw.go's
// metadata gob encoding.
type onDiskIndex struct {
	FileID     string
	Dimensions int
	Ordinals   []int
	Vectors    [][]float32
}

// Save writes the index to path using a temp-file-plus-rename sequence so a
// crash mid-write never leaves a truncated index behind, grounded on
// internal/store/hnsw.go's Save/saveMetadata.
func (f *FlatIndex) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vector: create dir: %w", err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("vector: create temp file: %w", err)
	}

	enc := gob.NewEncoder(file)
	payload := onDiskIndex{
		FileID:     f.fileID,
		Dimensions: f.dimensions,
		Ordinals:   f.ordinals,
		Vectors:    f.vectors,
	}
	if err := enc.Encode(payload); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("vector: encode index: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("vector: close temp file: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadFlatIndex reads an index previously written by Save.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vector: open index: %w", err)
	}
	defer file.Close()

	var payload onDiskIndex
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("vector: decode index: %w", err)
	}

	return &FlatIndex{
		fileID:     payload.FileID,
		dimensions: payload.Dimensions,
		ordinals:   payload.Ordinals,
		vectors:    payload.Vectors,
	}, nil
}
