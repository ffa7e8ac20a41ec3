// Package cache implements the Smart Cache, per SPEC_FULL.md §4.8: a
// two-tier (exact MD5-hash + semantic cosine-similarity) per-namespace
// answer cache, grounded on internal/embed/cached.go's use of
// github.com/hashicorp/golang-lru/v2 for LRU eviction and on
// original_source/src/cache/smart_cache.py for the exact/semantic lookup
// and eviction semantics.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ragcore/ragcore/internal/core"
)

// Embedder is the capability needed from C1 for semantic lookups.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	// DefaultMaxSize is the exact layer's default LRU capacity, per
	// spec.md §4.8 ("max_size"); the semantic layer holds max_size/2.
	DefaultMaxSize = 1000
	// DefaultSemanticThreshold is the cosine-similarity floor for a
	// semantic hit, per spec.md §4.8.
	DefaultSemanticThreshold = 0.95
	// DefaultExactTTL is spec.md §3's exact-layer TTL (7 days).
	DefaultExactTTL = 7 * 24 * time.Hour
	// DefaultSemanticTTL is spec.md §3's semantic-layer TTL (3 days).
	DefaultSemanticTTL = 3 * 24 * time.Hour
)

type exactEntry struct {
	record     core.AnswerRecord
	insertedAt time.Time
}

type semanticEntry struct {
	question   string
	embedding  []float32
	record     core.AnswerRecord
	insertedAt time.Time
}

// Config configures a Cache instance.
type Config struct {
	MaxSize           int
	SemanticThreshold float32
	ExactTTL          time.Duration
	SemanticTTL       time.Duration
}

// DefaultConfig returns spec.md §4.8's defaults.
func DefaultConfig() Config {
	return Config{
		MaxSize:           DefaultMaxSize,
		SemanticThreshold: DefaultSemanticThreshold,
		ExactTTL:          DefaultExactTTL,
		SemanticTTL:       DefaultSemanticTTL,
	}
}

// Cache is one namespace's Smart Cache instance: the namespace isolation
// spec.md §4.8 requires comes from holding one Cache per
// (tenant_id, scenario_id), not from any key prefixing inside it.
type Cache struct {
	mu               sync.Mutex
	exact            *lru.Cache[string, *exactEntry]
	semantic         *lru.Cache[string, *semanticEntry]
	cfg              Config
	semanticCapacity int
}

// New builds a Cache with the given configuration, applying defaults for
// zero values (and for a non-positive MaxSize or SemanticThreshold). A
// negative TTL is kept as given, so entries are already expired.
func New(cfg Config) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.SemanticThreshold <= 0 {
		cfg.SemanticThreshold = DefaultSemanticThreshold
	}
	if cfg.ExactTTL == 0 {
		cfg.ExactTTL = DefaultExactTTL
	}
	if cfg.SemanticTTL == 0 {
		cfg.SemanticTTL = DefaultSemanticTTL
	}

	exact, _ := lru.New[string, *exactEntry](cfg.MaxSize)
	semanticSize := cfg.MaxSize / 2
	if semanticSize < 1 {
		semanticSize = 1
	}
	semantic, _ := lru.New[string, *semanticEntry](semanticSize)

	return &Cache{exact: exact, semantic: semantic, cfg: cfg, semanticCapacity: semanticSize}
}

// Stats is a point-in-time snapshot of a namespace's cache occupancy, for
// GetStatus's "cache_stats" field.
type Stats struct {
	ExactEntries     int
	SemanticEntries  int
	ExactCapacity    int
	SemanticCapacity int
}

// Stats returns the current occupancy of both tiers.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		ExactEntries:     c.exact.Len(),
		SemanticEntries:  c.semantic.Len(),
		ExactCapacity:    c.cfg.MaxSize,
		SemanticCapacity: c.semanticCapacity,
	}
}

func questionHash(question string) string {
	sum := md5.Sum([]byte(question))
	return hex.EncodeToString(sum[:])
}

// Lookup implements spec.md §4.8's Lookup: exact layer first, then
// semantic nearest-neighbor.
func (c *Cache) Lookup(ctx context.Context, embedder Embedder, question string) (core.AnswerRecord, bool) {
	key := questionHash(question)

	c.mu.Lock()
	if entry, ok := c.exact.Get(key); ok {
		if time.Since(entry.insertedAt) <= c.cfg.ExactTTL {
			c.mu.Unlock()
			return entry.record, true
		}
		c.exact.Remove(key)
	}
	c.mu.Unlock()

	return c.semanticLookup(ctx, embedder, question)
}

func (c *Cache) semanticLookup(ctx context.Context, embedder Embedder, question string) (core.AnswerRecord, bool) {
	if embedder == nil {
		return core.AnswerRecord{}, false
	}
	vecs, err := embedder.Embed(ctx, []string{question})
	if err != nil || len(vecs) == 0 {
		return core.AnswerRecord{}, false
	}
	queryVec := vecs[0]

	c.mu.Lock()
	defer c.mu.Unlock()

	var bestKey string
	var bestEntry *semanticEntry
	bestSim := float32(-1)

	now := time.Now()
	for _, key := range c.semantic.Keys() {
		entry, ok := c.semantic.Peek(key)
		if !ok {
			continue
		}
		if now.Sub(entry.insertedAt) > c.cfg.SemanticTTL {
			c.semantic.Remove(key)
			continue
		}
		sim := cosineSimilarity(queryVec, entry.embedding)
		if sim > bestSim {
			bestSim = sim
			bestEntry = entry
			bestKey = key
		}
	}

	if bestEntry != nil && bestSim >= c.cfg.SemanticThreshold {
		c.semantic.Get(bestKey) // promote to MRU
		return bestEntry.record, true
	}
	return core.AnswerRecord{}, false
}

// Store implements spec.md §4.8's Store: always writes exact; if
// useSemantic, best-effort embeds and writes the semantic entry (embedding
// failure logs a warning and only aborts the semantic write).
func (c *Cache) Store(ctx context.Context, embedder Embedder, question string, record core.AnswerRecord, useSemantic bool) {
	key := questionHash(question)

	c.mu.Lock()
	c.exact.Add(key, &exactEntry{record: record, insertedAt: time.Now()})
	c.mu.Unlock()

	if !useSemantic || embedder == nil {
		return
	}
	vecs, err := embedder.Embed(ctx, []string{question})
	if err != nil || len(vecs) == 0 {
		slog.Warn("smart_cache_semantic_embed_failed", slog.String("error", errString(err)))
		return
	}

	c.mu.Lock()
	c.semantic.Add(key, &semanticEntry{
		question:   question,
		embedding:  vecs[0],
		record:     record,
		insertedAt: time.Now(),
	})
	c.mu.Unlock()
}

func errString(err error) string {
	if err == nil {
		return "embedder returned no vectors"
	}
	return err.Error()
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
