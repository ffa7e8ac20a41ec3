package namespace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	core_errors "github.com/ragcore/ragcore/internal/core/errors"
)

func TestGetReturnsNamespaceUnknownBeforeLoad(t *testing.T) {
	r := New(Config{RootDir: t.TempDir()})
	_, err := r.Get(Key{TenantID: "t1", ScenarioID: "s1"})
	require.True(t, errors.Is(err, core_errors.ErrNamespaceUnknown))
}

func TestLoadReturnsNamespaceUnknownWhenDirMissing(t *testing.T) {
	r := New(Config{RootDir: t.TempDir()})
	_, err := r.Load(context.Background(), Key{TenantID: "t1", ScenarioID: "s1"})
	require.True(t, errors.Is(err, core_errors.ErrNamespaceUnknown))
}

func TestLoadSucceedsOnEmptyPreparedNamespace(t *testing.T) {
	root := t.TempDir()
	key := Key{TenantID: "t1", ScenarioID: "s1"}
	require.NoError(t, os.MkdirAll(filepath.Join(root, key.TenantID, key.ScenarioID), 0o755))

	r := New(Config{RootDir: root})
	ns, err := r.Load(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, ns.BM25)
	require.NotNil(t, ns.Vector)
	require.NotNil(t, ns.Hybrid)
	require.NotNil(t, ns.Cache)

	got, err := r.Get(key)
	require.NoError(t, err)
	require.Same(t, ns, got)
}

func TestLoadIsIdempotentForAlreadyLoadedNamespace(t *testing.T) {
	root := t.TempDir()
	key := Key{TenantID: "t1", ScenarioID: "s1"}
	require.NoError(t, os.MkdirAll(filepath.Join(root, key.TenantID, key.ScenarioID), 0o755))

	r := New(Config{RootDir: root})
	first, err := r.Load(context.Background(), key)
	require.NoError(t, err)
	second, err := r.Load(context.Background(), key)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestUnloadRemovesNamespace(t *testing.T) {
	root := t.TempDir()
	key := Key{TenantID: "t1", ScenarioID: "s1"}
	require.NoError(t, os.MkdirAll(filepath.Join(root, key.TenantID, key.ScenarioID), 0o755))

	r := New(Config{RootDir: root})
	_, err := r.Load(context.Background(), key)
	require.NoError(t, err)

	r.Unload(key)
	_, err = r.Get(key)
	require.True(t, errors.Is(err, core_errors.ErrNamespaceUnknown))
}

func TestKeysListsLoadedNamespaces(t *testing.T) {
	root := t.TempDir()
	key := Key{TenantID: "t1", ScenarioID: "s1"}
	require.NoError(t, os.MkdirAll(filepath.Join(root, key.TenantID, key.ScenarioID), 0o755))

	r := New(Config{RootDir: root})
	_, err := r.Load(context.Background(), key)
	require.NoError(t, err)

	require.Equal(t, []Key{key}, r.Keys())
}

func TestLoadChunkMetaForDirParsesSidecar(t *testing.T) {
	dir := t.TempDir()
	raw := `{"chunks":["first chunk","second chunk"],"chunk_metadata":[{"page_number":1},{"page_number":2}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1.chunks.json"), []byte(raw), 0o644))

	got := loadChunkMetaForDir(dir)
	require.Len(t, got["file1"], 2)
	require.Equal(t, "first chunk", got["file1"][0].Text)
	require.Equal(t, 2, got["file1"][1].PageNumber)
	require.Equal(t, "file1#chunk#0", got["file1"][0].ChunkID)
}

func TestLoadChunkMetaForDirMissingDirReturnsEmpty(t *testing.T) {
	got := loadChunkMetaForDir(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Empty(t, got)
}
