// Package navigator implements C6, the Layered Navigator, per
// SPEC_FULL.md §4.6, grounded on
// original_source/src/retrieval/layered_navigator.py.
package navigator

import (
	"context"
	"fmt"

	"github.com/ragcore/ragcore/internal/core"
)

// TokenCounter is the capability needed from C1.
type TokenCounter interface {
	CountTokensApprox(text string) int
}

// Navigator is C6.
type Navigator struct {
	tokens TokenCounter
	router routerAdapter
}

// routerAdapter lets Navigator accept either a full Router or just the
// RouteDocuments/ShouldExpandContext functions, matching how routing.Agent
// exposes both as methods plus a package-level ShouldExpandContext.
type routerAdapter struct {
	routeDocuments      func(ctx context.Context, chunks []core.RetrievalHit, question, history string, topK int) core.RoutingDecision
	shouldExpandContext func(chunk core.RetrievalHit) bool
}

// New builds a Navigator from a token counter and the two C5 operations it
// needs.
func New(tokens TokenCounter, routeDocuments func(ctx context.Context, chunks []core.RetrievalHit, question, history string, topK int) core.RoutingDecision, shouldExpandContext func(core.RetrievalHit) bool) *Navigator {
	return &Navigator{
		tokens: tokens,
		router: routerAdapter{routeDocuments: routeDocuments, shouldExpandContext: shouldExpandContext},
	}
}

const (
	maxRoundsDefault    = 3
	targetTokensDefault = 2000
)

// Navigate implements spec.md §4.6's full loop-then-expand protocol. Any
// panic recovered during navigation returns the first 5 of the original
// input, per the spec's safe-fallback requirement.
func (n *Navigator) Navigate(ctx context.Context, chunks []core.RetrievalHit, question string) (result []core.RetrievalHit) {
	return n.NavigateWith(ctx, chunks, question, maxRoundsDefault, targetTokensDefault)
}

// NavigateWith is Navigate with explicit max_rounds/target_tokens, for
// configuration-driven callers.
func (n *Navigator) NavigateWith(ctx context.Context, chunks []core.RetrievalHit, question string, maxRounds, targetTokens int) (result []core.RetrievalHit) {
	if len(chunks) == 0 {
		return []core.RetrievalHit{}
	}

	defer func() {
		if r := recover(); r != nil {
			fallback := chunks
			if len(fallback) > 5 {
				fallback = fallback[:5]
			}
			result = fallback
		}
	}()

	current := chunks
	for round := 0; round < maxRounds; round++ {
		totalTokens := n.estimateTokens(current)

		if totalTokens <= targetTokens && len(current) <= 10 {
			break
		}
		if len(current) <= 3 {
			break
		}

		topK := len(current) / 2
		if topK < 5 {
			topK = 5
		}
		decision := n.router.routeDocuments(ctx, current, question, scratchpad(round), topK)

		selected := selectHits(current, decision.SelectedIndices)
		if len(selected) == 0 || len(selected) >= len(current) {
			break
		}
		current = selected
	}

	return n.expandForCompleteness(current)
}

func (n *Navigator) estimateTokens(chunks []core.RetrievalHit) int {
	total := 0
	for _, c := range chunks {
		total += n.tokens.CountTokensApprox(c.Text)
	}
	return total
}

func selectHits(chunks []core.RetrievalHit, indices []int) []core.RetrievalHit {
	out := make([]core.RetrievalHit, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(chunks) {
			continue
		}
		out = append(out, chunks[idx])
	}
	return out
}

// expandForCompleteness sets NeedsExpansion (a navigator-local annotation
// carried alongside the hit, since spec.md §4.6 says the navigator never
// mutates chunk text) for every chunk C5 flags as truncated.
func (n *Navigator) expandForCompleteness(chunks []core.RetrievalHit) []core.RetrievalHit {
	flagged := make([]core.RetrievalHit, len(chunks))
	for i, c := range chunks {
		flagged[i] = c
		flagged[i].NeedsExpansion = n.router.shouldExpandContext(c)
	}
	return flagged
}

func scratchpad(round int) string {
	return fmt.Sprintf("round %d", round+1)
}
