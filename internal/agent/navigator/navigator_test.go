package navigator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore/internal/core"
)

type charCounter struct{}

func (charCounter) CountTokensApprox(text string) int { return len(text) }

func manyChunks(n int, textLen int) []core.RetrievalHit {
	out := make([]core.RetrievalHit, n)
	for i := range out {
		out[i] = core.RetrievalHit{ChunkID: string(rune('a' + i)), Text: strings.Repeat("x", textLen)}
	}
	return out
}

func TestNavigateStopsImmediatelyWhenAlreadyUnderBudget(t *testing.T) {
	calls := 0
	route := func(_ context.Context, chunks []core.RetrievalHit, _, _ string, _ int) core.RoutingDecision {
		calls++
		return core.RoutingDecision{}
	}
	n := New(charCounter{}, route, func(core.RetrievalHit) bool { return false })

	chunks := manyChunks(5, 10)
	out := n.Navigate(context.Background(), chunks, "q")
	require.Len(t, out, 5)
	require.Equal(t, 0, calls)
}

func TestNavigateShrinksOverBudgetSet(t *testing.T) {
	route := func(_ context.Context, chunks []core.RetrievalHit, _, _ string, topK int) core.RoutingDecision {
		indices := make([]int, 0, topK)
		for i := 0; i < topK && i < len(chunks); i++ {
			indices = append(indices, i)
		}
		return core.RoutingDecision{SelectedIndices: indices}
	}
	n := New(charCounter{}, route, func(core.RetrievalHit) bool { return false })

	chunks := manyChunks(20, 500)
	out := n.Navigate(context.Background(), chunks, "q")
	require.Less(t, len(out), 20)
	require.Greater(t, len(out), 0)
}

func TestNavigateStopsWhenNoProgress(t *testing.T) {
	calls := 0
	route := func(_ context.Context, chunks []core.RetrievalHit, _, _ string, _ int) core.RoutingDecision {
		calls++
		indices := make([]int, len(chunks))
		for i := range indices {
			indices[i] = i
		}
		return core.RoutingDecision{SelectedIndices: indices}
	}
	n := New(charCounter{}, route, func(core.RetrievalHit) bool { return false })

	chunks := manyChunks(20, 500)
	out := n.Navigate(context.Background(), chunks, "q")
	require.Equal(t, 1, calls)
	require.Len(t, out, 20)
}

func TestNavigateFlagsNeedsExpansion(t *testing.T) {
	route := func(_ context.Context, chunks []core.RetrievalHit, _, _ string, _ int) core.RoutingDecision {
		return core.RoutingDecision{}
	}
	n := New(charCounter{}, route, func(core.RetrievalHit) bool { return true })

	chunks := manyChunks(3, 10)
	out := n.Navigate(context.Background(), chunks, "q")
	require.Len(t, out, 3)
	for _, c := range out {
		require.True(t, c.NeedsExpansion)
	}
}

func TestNavigateEmptyInputReturnsEmpty(t *testing.T) {
	n := New(charCounter{}, nil, func(core.RetrievalHit) bool { return false })
	out := n.Navigate(context.Background(), nil, "q")
	require.Empty(t, out)
}
