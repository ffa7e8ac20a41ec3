// Package ragcore is the public API surface for the agentic RAG core, per
// SPEC_FULL.md §6.3: ProcessQuestion, PrepareNamespace, GetStatus, plus
// the supplemental WarmCache and GetAgenticStats. Grounded on the
// teacher's top-level wiring in cmd/amanmcp and internal/mcp/server.go's
// single-Server-owns-everything shape.
package ragcore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ragcore/ragcore/internal/cache"
	"github.com/ragcore/ragcore/internal/config"
	"github.com/ragcore/ragcore/internal/core"
	core_errors "github.com/ragcore/ragcore/internal/core/errors"
	"github.com/ragcore/ragcore/internal/llm"
	"github.com/ragcore/ragcore/internal/namespace"
	"github.com/ragcore/ragcore/internal/orchestrator"
	"github.com/ragcore/ragcore/internal/retrieval/hybrid"
	"github.com/ragcore/ragcore/internal/storemeta"
)

// QAPair is one warm-up question/answer pair, per
// original_source/src/cache/smart_cache.py.warm_up.
type QAPair struct {
	Question string
	Answer   core.AnswerRecord
}

// Stats is GetStatus's / GetAgenticStats's result shape, per spec.md
// §6.3: `{indices_loaded, cache_stats, retrieval_stats}`.
type Stats struct {
	IndicesLoaded  bool
	CacheStats     cache.Stats
	RetrievalStats hybrid.Stats
}

// PrepareResult is PrepareNamespace's result, per spec.md §6.3.
type PrepareResult struct {
	Parsed      int
	Indexed     int
	TotalTimeMs int64
}

// Core wires every component into the three required public calls. One
// Core serves every tenant/scenario; isolation is structural via the
// namespace.Registry, per spec.md §5's tenant-isolation invariant.
type Core struct {
	cfg      *config.Config
	gateway  llm.Gateway
	registry *namespace.Registry
	meta     *storemeta.Store // nil when bookkeeping is disabled

	mu            sync.Mutex
	orchestrators map[string]*orchestrator.Orchestrator // scenario_id -> orchestrator
	scenarios     map[string]core.ScenarioConfig        // scenario_id -> config
}

// New builds a Core from configuration, constructing the shared LLM
// gateway and an empty namespace registry rooted at cfg's on-disk layout
// (SPEC_FULL.md §6.1: "<root>/databases/...").
func New(cfg *config.Config, rootDir string) (*Core, error) {
	gw, err := llm.New(llm.GatewayConfig{
		ChatProvider:  cfg.Providers.ChatProvider,
		EmbedProvider: cfg.Providers.EmbedProvider,
		ChatModel:     cfg.Providers.ChatModel,
		FastModel:     cfg.Providers.FastModel,
		VerifyModel:   cfg.Providers.VerifyModel,
		EmbedModel:    cfg.Providers.EmbedModel,
		BaseURL:       cfg.Providers.BaseURL,
		APIKeyEnv:     cfg.Providers.APIKeyEnv,
		EmbedBatch:    cfg.Providers.EmbedBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("ragcore: build gateway: %w", err)
	}

	exactTTL, err := time.ParseDuration(cfg.Cache.ExactTTL)
	if err != nil {
		exactTTL = cache.DefaultExactTTL
	}
	semanticTTL, err := time.ParseDuration(cfg.Cache.SemanticTTL)
	if err != nil {
		semanticTTL = cache.DefaultSemanticTTL
	}

	registry := namespace.New(namespace.Config{
		RootDir:       filepath.Join(rootDir, "databases"),
		MinSimilarity: cfg.Retrieval.MinSimilarity,
		RRFWeights: hybrid.Weights{
			K:            cfg.Retrieval.RRFConstant,
			BM25Weight:   cfg.Retrieval.BM25Weight,
			VectorWeight: cfg.Retrieval.VectorWeight,
		},
		Cache: cache.Config{
			MaxSize:           cfg.Cache.MaxSize,
			SemanticThreshold: cfg.Cache.SemanticThreshold,
			ExactTTL:          exactTTL,
			SemanticTTL:       semanticTTL,
		},
	})

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("ragcore: create root dir: %w", err)
	}
	meta, err := storemeta.Open(filepath.Join(rootDir, "meta.db"))
	if err != nil {
		return nil, fmt.Errorf("ragcore: open metadata store: %w", err)
	}

	return &Core{
		cfg:           cfg,
		gateway:       gw,
		registry:      registry,
		meta:          meta,
		orchestrators: make(map[string]*orchestrator.Orchestrator),
		scenarios:     make(map[string]core.ScenarioConfig),
	}, nil
}

// RegisterScenario installs a scenario's prompts/keyword library and lazily
// builds its C5/C7 agents over the shared gateway. Calling it again for the
// same scenario_id replaces the previous configuration and agents.
func (c *Core) RegisterScenario(scenarioID string, scenario core.ScenarioConfig) {
	scenario.ScenarioID = scenarioID

	router := orchestrator.NewRoutingAgent(c.gateway, scenario, c.cfg.Providers.FastModel)
	verifier := orchestrator.NewVerifier(c.gateway, scenario, c.cfg.Providers.VerifyModel)
	orch := orchestrator.New(c.gateway, router, verifier, orchestrator.Config{
		RetrieveK:       c.cfg.Retrieval.RetrieveK,
		NavigatorRounds: c.cfg.Navigator.MaxRounds,
		NavigatorTarget: c.cfg.Navigator.TargetTokens,
		ChatModel:       c.cfg.Providers.ChatModel,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenarios[scenarioID] = scenario
	c.orchestrators[scenarioID] = orch
}

// WatchScenarioFile loads a scenario config file and re-registers the
// scenario on every subsequent write, so prompt/keyword-library edits take
// effect without a restart. The caller owns the returned watcher's
// lifetime and must Close it on shutdown.
func (c *Core) WatchScenarioFile(path, scenarioID string) (*config.ScenarioWatcher, error) {
	scenario, err := config.LoadScenario(path, scenarioID)
	if err != nil {
		return nil, err
	}
	c.RegisterScenario(scenarioID, scenario)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ragcore: create scenario config dir: %w", err)
	}

	return config.WatchScenario(path, scenarioID, func(sc core.ScenarioConfig) {
		c.RegisterScenario(scenarioID, sc)
	})
}

func (c *Core) orchestratorFor(scenarioID string) (*orchestrator.Orchestrator, core.ScenarioConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	orch, ok := c.orchestrators[scenarioID]
	if !ok {
		return nil, core.ScenarioConfig{}, &core_errors.CoreError{Kind: core_errors.ErrValidation, Op: "ragcore", Err: fmt.Errorf("scenario %q not registered", scenarioID)}
	}
	return orch, c.scenarios[scenarioID], nil
}

// ProcessQuestion implements spec.md §6.3's ProcessQuestion.
func (c *Core) ProcessQuestion(ctx context.Context, tenantID, scenarioID, question string) (core.AnswerRecord, error) {
	if question == "" {
		return core.AnswerRecord{}, &core_errors.CoreError{Kind: core_errors.ErrValidation, Op: "ragcore.ProcessQuestion", Err: fmt.Errorf("question must not be empty")}
	}

	orch, scenario, err := c.orchestratorFor(scenarioID)
	if err != nil {
		return core.AnswerRecord{}, err
	}

	ns, err := c.registry.Load(ctx, namespace.Key{TenantID: tenantID, ScenarioID: scenarioID})
	if err != nil {
		return core.AnswerRecord{}, err
	}

	return orch.ProcessQuestion(ctx, ns, scenario, question)
}

// PrepareNamespace implements spec.md §6.3's PrepareNamespace. Ingestion
// (parsing source documents into chunks/vectors) is an external
// collaborator per spec.md §1; this call's job is to materialize the
// namespace's on-disk directory layout and load whatever indices already
// exist there into memory, reporting how many chunks are now searchable.
func (c *Core) PrepareNamespace(ctx context.Context, tenantID, scenarioID string, forceRebuild bool) (PrepareResult, error) {
	start := time.Now()
	key := namespace.Key{TenantID: tenantID, ScenarioID: scenarioID}

	dir := filepath.Join(c.registry.RootDir(), tenantID, scenarioID)
	for _, sub := range []string{"bm25", "vector_dbs", "cache"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return PrepareResult{}, &core_errors.CoreError{Kind: core_errors.ErrIngestion, Op: "ragcore.PrepareNamespace", Err: err}
		}
	}

	if forceRebuild {
		c.registry.Unload(key)
	}

	ns, err := c.registry.Load(ctx, key)
	if err != nil {
		return PrepareResult{}, &core_errors.CoreError{Kind: core_errors.ErrIngestion, Op: "ragcore.PrepareNamespace", Err: err}
	}

	total := ns.BM25.ChunkCount()
	elapsed := time.Since(start)

	if err := c.meta.RecordPreparation(tenantID, scenarioID, total, total, elapsed.Milliseconds(), start); err != nil {
		return PrepareResult{}, &core_errors.CoreError{Kind: core_errors.ErrIngestion, Op: "ragcore.PrepareNamespace", Err: err}
	}

	return PrepareResult{
		Parsed:      total,
		Indexed:     total,
		TotalTimeMs: elapsed.Milliseconds(),
	}, nil
}

// GetStatus implements spec.md §6.3's GetStatus.
func (c *Core) GetStatus(tenantID, scenarioID string) (Stats, error) {
	ns, err := c.registry.Get(namespace.Key{TenantID: tenantID, ScenarioID: scenarioID})
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		IndicesLoaded:  true,
		CacheStats:     ns.Cache.Stats(),
		RetrievalStats: ns.Hybrid.Stats(),
	}, nil
}

// GetAgenticStats is an alias for GetStatus, grounded on
// original_source/src/questions_processing.py.get_agentic_rag_stats,
// kept for readers coming from the original system's naming.
func (c *Core) GetAgenticStats(tenantID, scenarioID string) (Stats, error) {
	return c.GetStatus(tenantID, scenarioID)
}

// WarmCache pre-populates a namespace's Smart Cache with known-good
// question/answer pairs, grounded on
// original_source/src/cache/smart_cache.py.warm_up.
func (c *Core) WarmCache(ctx context.Context, tenantID, scenarioID string, pairs []QAPair) error {
	ns, err := c.registry.Load(ctx, namespace.Key{TenantID: tenantID, ScenarioID: scenarioID})
	if err != nil {
		return err
	}
	for _, p := range pairs {
		ns.Cache.Store(ctx, c.gateway, p.Question, p.Answer, true)
	}
	return nil
}

// Close releases the shared gateway's resources and the metadata store.
func (c *Core) Close() error {
	gwErr := c.gateway.Close()
	metaErr := c.meta.Close()
	if gwErr != nil {
		return gwErr
	}
	return metaErr
}
