// Package orchestrator implements ProcessQuestion, the top-level pipeline
// stage order from spec.md §4.9: analyze -> cache lookup -> retrieve ->
// route -> navigate -> generate -> verify -> cache store. Grounded on
// original_source/src/questions_processing.py.process_question for the
// stage order and fallback policy, and on
// other_examples/.../pgedge-rag-server/internal/pipeline/orchestrator.go
// for the struct/constructor shape and token-budget context truncation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ragcore/ragcore/internal/agent/navigator"
	"github.com/ragcore/ragcore/internal/agent/routing"
	"github.com/ragcore/ragcore/internal/core"
	core_errors "github.com/ragcore/ragcore/internal/core/errors"
	"github.com/ragcore/ragcore/internal/llm"
	"github.com/ragcore/ragcore/internal/namespace"
	"github.com/ragcore/ragcore/internal/verify"
)

// Config configures an Orchestrator, per spec.md §6.4's enumerated
// options that bear on ProcessQuestion specifically.
type Config struct {
	RetrieveK       int
	NavigatorRounds int
	NavigatorTarget int
	ChatModel       string
	RequestTimeout  time.Duration
}

// DefaultConfig returns spec.md §4.9/§5's stated defaults.
func DefaultConfig() Config {
	return Config{
		RetrieveK:       5,
		NavigatorRounds: 3,
		NavigatorTarget: 2000,
		RequestTimeout:  90 * time.Second,
	}
}

// Orchestrator wires C1 (via llm.Gateway), C5, C6 and C7 into
// ProcessQuestion. One Orchestrator is shared across namespaces; each
// call receives the specific namespace.Namespace to operate on, per
// spec.md §5's "LLM Gateway: stateless... safe to share" policy.
type Orchestrator struct {
	gateway llm.Gateway
	router  *routing.Agent
	verify  *verify.Verifier
	cfg     Config
}

// New builds an Orchestrator. Fast/verify model choices are carried by the
// router/verifier themselves (constructed by the caller); the
// Orchestrator only needs the shared gateway for its own generation call
// and for the cache's semantic-embedding calls.
func New(gateway llm.Gateway, router *routing.Agent, verifier *verify.Verifier, cfg Config) *Orchestrator {
	if cfg.RetrieveK <= 0 {
		cfg.RetrieveK = 5
	}
	if cfg.NavigatorRounds <= 0 {
		cfg.NavigatorRounds = 3
	}
	if cfg.NavigatorTarget <= 0 {
		cfg.NavigatorTarget = 2000
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	return &Orchestrator{gateway: gateway, router: router, verify: verifier, cfg: cfg}
}

// ProcessQuestion implements spec.md §4.9.
func (o *Orchestrator) ProcessQuestion(ctx context.Context, ns *namespace.Namespace, scenario core.ScenarioConfig, question string) (core.AnswerRecord, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	// analysis is computed for parity with the original pipeline's query
	// classification step; nothing downstream in this stage order
	// consumes it directly, but it
	// is logged for observability, matching the teacher's habit of
	// logging intermediate agent decisions.
	analysis := o.router.AnalyzeQuery(ctx, question)
	slog.Debug("question_analyzed",
		slog.String("question_type", string(analysis.QuestionType)),
		slog.String("difficulty", string(analysis.Difficulty)))

	if cached, ok := ns.Cache.Lookup(ctx, o.gateway, question); ok {
		return cached, nil
	}

	navAgent := navigator.New(tokenCounterAdapter{o.gateway}, o.router.RouteDocuments, routing.ShouldExpandContext)
	contextChunks := o.retrieveContext(ctx, ns, navAgent, question)

	mode := core.ModeRAG
	if len(contextChunks) == 0 {
		mode = core.ModePureLLM
	}

	genStart := time.Now()
	answer, err := o.gateway.Chat(ctx, llm.ChatRequest{
		Model:       o.cfg.ChatModel,
		System:      scenario.SystemContent,
		User:        formatGenerationPrompt(scenario, question, contextChunks),
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	genElapsed := time.Since(genStart)
	if err != nil {
		if ctx.Err() != nil {
			return core.AnswerRecord{}, &core_errors.CoreError{Kind: core_errors.ErrDeadline, Op: "orchestrator.ProcessQuestion", Err: err}
		}
		return core.AnswerRecord{}, &core_errors.CoreError{Kind: core_errors.ErrLLMUpstream, Op: "orchestrator.ProcessQuestion", Err: err}
	}

	// VerifyAnswer itself short-circuits to a skipped verification when
	// contextChunks is empty, per spec.md §4.7, so the pure_llm path
	// needs no separate branch here.
	verification := o.verify.VerifyAnswer(ctx, answer, contextChunks, question)

	confidence := verification.Confidence
	if confidence == 0 {
		confidence = 0.5
	}

	record := core.AnswerRecord{
		Question:         question,
		Answer:           answer,
		Reasoning:        verification.Reasoning,
		RelevantPages:    distinctPages(contextChunks),
		Confidence:       confidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		SourceChunks:     contextChunks,
		Verification:     verification,
		Mode:             mode,
		ContextDocsCount: len(contextChunks),
		GenerationTimeMs: genElapsed.Milliseconds(),
	}

	ns.Cache.Store(ctx, o.gateway, question, record, true)

	return record, nil
}

// retrieveContext implements the retrieve -> route -> navigate stages,
// catching any retrieval/navigation failure (panic or error) and
// degrading to an empty context (pure_llm fallback), per spec.md §7's
// "Routing/navigation failures fall back to the previous stage's output"
// and §4.9's "Any exception in retrieval/navigation is caught".
func (o *Orchestrator) retrieveContext(ctx context.Context, ns *namespace.Namespace, navAgent *navigator.Navigator, question string) (contextChunks []core.RetrievalHit) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("retrieval_panic_recovered", slog.Any("panic", r))
			contextChunks = nil
		}
	}()

	hits, err := ns.Hybrid.Search(ctx, question, o.cfg.RetrieveK*3)
	if err != nil {
		slog.Warn("hybrid_search_failed", slog.String("error", err.Error()))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	routed := o.router.RouteDocuments(ctx, hits, question, "", o.cfg.RetrieveK*2)
	candidates := selectByIndices(hits, routed.SelectedIndices)
	if len(candidates) == 0 {
		candidates = hits
	}

	navigated := navAgent.NavigateWith(ctx, candidates, question, o.cfg.NavigatorRounds, o.cfg.NavigatorTarget)
	if len(navigated) > o.cfg.RetrieveK {
		navigated = navigated[:o.cfg.RetrieveK]
	}
	return navigated
}

func selectByIndices(hits []core.RetrievalHit, indices []int) []core.RetrievalHit {
	if len(indices) == 0 {
		return nil
	}
	out := make([]core.RetrievalHit, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(hits) {
			continue
		}
		out = append(out, hits[i])
	}
	return out
}

func distinctPages(chunks []core.RetrievalHit) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, c := range chunks {
		if _, ok := seen[c.PageNumber]; ok {
			continue
		}
		seen[c.PageNumber] = struct{}{}
		out = append(out, c.PageNumber)
	}
	return out
}

func formatGenerationPrompt(scenario core.ScenarioConfig, question string, chunks []core.RetrievalHit) string {
	if len(chunks) == 0 {
		return fmt.Sprintf("Question: %s\n\nNo supporting documents were retrieved; answer from general knowledge and say so explicitly.", question)
	}
	prompt := scenario.AnswerGenerationPrompt
	if prompt == "" {
		prompt = "Answer the question using only the provided documents. Cite page numbers."
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nDocuments:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] (page %d) %s\n\n", i+1, c.PageNumber, c.Text)
	}
	return b.String()
}
