// Package namespace implements the namespace registry described in
// spec.md §9's design note: one process-wide Registry object, keyed by
// (tenant_id, scenario_id), owning each namespace's indices, cache and
// stats, replacing the original system's module-level singletons and the
// teacher's single project-rooted engine in internal/mcp/server.go.
package namespace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	core_errors "github.com/ragcore/ragcore/internal/core/errors"

	"github.com/ragcore/ragcore/internal/cache"
	"github.com/ragcore/ragcore/internal/retrieval/bm25"
	"github.com/ragcore/ragcore/internal/retrieval/hybrid"
	"github.com/ragcore/ragcore/internal/retrieval/vector"
)

// Key identifies one tenant's scenario, per spec.md §3/§5's
// (tenant_id, scenario_id) namespace keying.
type Key struct {
	TenantID   string
	ScenarioID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.TenantID, k.ScenarioID)
}

// Namespace bundles one tenant/scenario's loaded state: its BM25 and
// vector stores, the hybrid retriever fusing them, and its own Smart
// Cache instance, per spec.md §5's "Cache: per-namespace instance with
// its own lock" and "Indices: loaded once per namespace".
type Namespace struct {
	Key Key

	BM25   *bm25.Store
	Vector *vector.Store
	Hybrid *hybrid.Retriever
	Cache  *cache.Cache

	dir      string
	fileLock *flock.Flock
}

// Dir returns the namespace's on-disk root, per SPEC_FULL.md §6.1.
func (n *Namespace) Dir() string { return n.dir }

// Registry is the single process-wide owner of every loaded namespace.
// Per spec.md §5's shared-resource policy, index load/unload is
// serialized per namespace with a single-writer lock, while reads
// (Get) are concurrent.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[Key]*Namespace
	rootDir    string

	minSimilarity float32
	rrfWeights    hybrid.Weights
	cacheCfg      cache.Config
}

// Config configures a new Registry.
type Config struct {
	RootDir       string
	MinSimilarity float32
	RRFWeights    hybrid.Weights
	Cache         cache.Config
}

// New returns an empty Registry rooted at cfg.RootDir.
func New(cfg Config) *Registry {
	if cfg.RRFWeights == (hybrid.Weights{}) {
		cfg.RRFWeights = hybrid.DefaultWeights()
	}
	return &Registry{
		namespaces:    make(map[Key]*Namespace),
		rootDir:       cfg.RootDir,
		minSimilarity: cfg.MinSimilarity,
		rrfWeights:    cfg.RRFWeights,
		cacheCfg:      cfg.Cache,
	}
}

func (r *Registry) namespaceDir(k Key) string {
	return filepath.Join(r.rootDir, k.TenantID, k.ScenarioID)
}

// RootDir returns the directory every namespace is rooted under, so
// callers can materialize a namespace's layout before first Load.
func (r *Registry) RootDir() string {
	return r.rootDir
}

// Get returns the loaded Namespace for key, or ErrNamespaceUnknown if it
// has never been prepared, per spec.md §7.
func (r *Registry) Get(k Key) (*Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.namespaces[k]
	if !ok {
		return nil, &core_errors.CoreError{Kind: core_errors.ErrNamespaceUnknown, Op: "namespace.Get"}
	}
	return ns, nil
}

// lockRetryInterval is how often TryLockContext polls for the namespace
// file lock while waiting.
const lockRetryInterval = 50 * time.Millisecond

// Load acquires the namespace's single-writer file lock, then loads its
// on-disk BM25 and vector indices into memory, registering the namespace
// in the registry. Calling Load again for an already-loaded namespace is
// a safe no-op that returns the existing Namespace; callers that want a
// fresh reload should Unload first.
func (r *Registry) Load(ctx context.Context, k Key) (*Namespace, error) {
	r.mu.Lock()
	if existing, ok := r.namespaces[k]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.mu.Unlock()

	dir := r.namespaceDir(k)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, &core_errors.CoreError{Kind: core_errors.ErrNamespaceUnknown, Op: "namespace.Load"}
	}

	lockPath := filepath.Join(dir, ".lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil || !locked {
		return nil, &core_errors.CoreError{Kind: core_errors.ErrIndexLoad, Op: "namespace.Load", Err: fmt.Errorf("could not acquire namespace lock for %s", k)}
	}
	defer fl.Unlock()

	bm25Store := bm25.NewStore()
	vectorStore := vector.NewStore(r.minSimilarity)

	// LoadNamespace on each sub-store is best-effort per-file: a single
	// corrupt or missing file's index is logged and skipped rather than
	// failing namespace load outright, per spec.md §7's "retriever-level
	// failures... logged and skipped" policy. Chunk text/page metadata
	// comes from the "<file_id>.chunks.json" sidecar, per SPEC_FULL.md §6.1.
	bm25Dir := filepath.Join(dir, "bm25")
	vectorDir := filepath.Join(dir, "vector_dbs")

	if err := bm25Store.LoadNamespace(bm25Dir, loadChunkMetaForDir(bm25Dir)); err != nil {
		return nil, &core_errors.CoreError{Kind: core_errors.ErrIndexLoad, Op: "namespace.Load", Err: err}
	}
	if err := vectorStore.LoadNamespace(vectorDir, loadChunkMetaForDir(vectorDir)); err != nil {
		return nil, &core_errors.CoreError{Kind: core_errors.ErrIndexLoad, Op: "namespace.Load", Err: err}
	}

	hybridRetriever := hybrid.New(bm25Store, vectorStore, r.rrfWeights)
	namespaceCache := cache.New(r.cacheCfg)

	ns := &Namespace{
		Key:      k,
		BM25:     bm25Store,
		Vector:   vectorStore,
		Hybrid:   hybridRetriever,
		Cache:    namespaceCache,
		dir:      dir,
		fileLock: fl,
	}

	r.mu.Lock()
	r.namespaces[k] = ns
	r.mu.Unlock()

	return ns, nil
}

// Unload drops a namespace from memory, releasing its indices. It does
// not touch on-disk files.
func (r *Registry) Unload(k Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ns, ok := r.namespaces[k]; ok {
		ns.BM25.Close()
		delete(r.namespaces, k)
	}
}

// Keys returns every currently-loaded namespace key, for GetStatus /
// administrative listing.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Key, 0, len(r.namespaces))
	for k := range r.namespaces {
		out = append(out, k)
	}
	return out
}
