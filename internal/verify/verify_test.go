package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore/internal/core"
)

type stubChat struct {
	resp string
	err  error
}

func (s stubChat) Chat(_ context.Context, _ ChatRequest) (string, error) {
	return s.resp, s.err
}

func TestExtractCitationsDedupesPreservingOrder(t *testing.T) {
	v := New(stubChat{}, core.ScenarioConfig{}, "verify-model")
	got := v.ExtractCitations("参见第5页和第5页，另见[3]")
	require.Equal(t, []string{"5", "3"}, got)
}

func TestCitationExistsMatchesPageNumber(t *testing.T) {
	chunks := []core.RetrievalHit{{PageNumber: 5, ChunkID: "f#chunk#0"}}
	require.True(t, CitationExists("5", chunks))
}

func TestCitationExistsMatchesChunkIDDigits(t *testing.T) {
	chunks := []core.RetrievalHit{{PageNumber: 0, ChunkID: "f#chunk#42"}}
	require.True(t, CitationExists("42", chunks))
}

func TestCitationExistsTolerantParagraphNumbering(t *testing.T) {
	chunks := make([]core.RetrievalHit, 10)
	require.True(t, CitationExists("7", chunks))
}

func TestCitationExistsFailsForUnmatchedLargeNumber(t *testing.T) {
	chunks := make([]core.RetrievalHit, 2)
	require.False(t, CitationExists("99", chunks))
}

func TestCitationExistsNonNumericSubstringMatch(t *testing.T) {
	chunks := []core.RetrievalHit{{Text: "see appendix A for details"}}
	require.True(t, CitationExists("A", chunks))
}

func TestVerifyAnswerSkipsOnEmptyAnswer(t *testing.T) {
	v := New(stubChat{}, core.ScenarioConfig{}, "verify-model")
	result := v.VerifyAnswer(context.Background(), "", nil, "q")
	require.True(t, result.IsValid)
	require.Equal(t, core.CitationSkipped, result.CitationCheck)
}

func TestVerifyAnswerFailsOnInvalidCitation(t *testing.T) {
	v := New(stubChat{}, core.ScenarioConfig{}, "verify-model")
	chunks := []core.RetrievalHit{{PageNumber: 1}}
	result := v.VerifyAnswer(context.Background(), "见第99页", chunks, "q")
	require.False(t, result.IsValid)
	require.Equal(t, core.CitationFailed, result.CitationCheck)
	require.InDelta(t, 0.2, result.Confidence, 1e-9)
}

func TestVerifyAnswerCombinesConfidenceWithValidCitations(t *testing.T) {
	chat := stubChat{resp: `{"is_valid":true,"confidence":0.8,"reasoning":"looks good"}`}
	v := New(chat, core.ScenarioConfig{}, "verify-model")
	chunks := []core.RetrievalHit{{PageNumber: 5, Text: "content"}}
	result := v.VerifyAnswer(context.Background(), "见第5页", chunks, "q")
	require.True(t, result.IsValid)
	require.InDelta(t, 0.9, result.Confidence, 1e-9)
	require.Equal(t, core.CitationPassed, result.CitationCheck)
}

func TestVerifyAnswerNoCitationsReducesConfidence(t *testing.T) {
	chat := stubChat{resp: `{"is_valid":true,"confidence":0.8,"reasoning":"ok"}`}
	v := New(chat, core.ScenarioConfig{}, "verify-model")
	chunks := []core.RetrievalHit{{PageNumber: 5, Text: "content"}}
	result := v.VerifyAnswer(context.Background(), "a plain answer with no citation markers", chunks, "q")
	require.InDelta(t, 0.75, result.Confidence, 1e-9)
	require.Equal(t, core.CitationNone, result.CitationCheck)
}

func TestQwenVerifyDefaultsOnParseFailure(t *testing.T) {
	chat := stubChat{resp: "not json"}
	v := New(chat, core.ScenarioConfig{}, "verify-model")
	chunks := []core.RetrievalHit{{PageNumber: 5, Text: "content"}}
	result := v.VerifyAnswer(context.Background(), "a plain answer", chunks, "q")
	require.Equal(t, "parse_failed", result.Reasoning)
}
