package bm25

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeCJKEachCharIsOwnToken(t *testing.T) {
	require.Equal(t, []string{"中", "文", "分", "词"}, Tokenize("中文分词"))
}

func TestTokenizeASCIIRunMerges(t *testing.T) {
	require.Equal(t, []string{"hello123"}, Tokenize("hello123"))
}

func TestTokenizeMixedAndPunctuation(t *testing.T) {
	require.Equal(t, []string{"中", "文", "abc", "，", "def"}, Tokenize("中文abc，def"))
}

func TestTokenizeWhitespaceFlushesWithoutToken(t *testing.T) {
	require.Equal(t, []string{"foo", "bar"}, Tokenize("foo bar"))
}

func TestTokenizeEmptyString(t *testing.T) {
	require.Empty(t, Tokenize(""))
}

// TestTokenizeBudgetExampleMatchesOriginalPythonReading documents a
// deliberate ambiguity resolution: spec.md's worked example for this exact
// input claims 9 tokens with the comma in "3,000" silently dropped and the
// digit run merged across it ("3000" as one token) — but the same spec's
// own four-rule algorithm has no "comma is a separator-only punctuation"
// case; a comma is not whitespace and not an ASCII alnum, so rule 4 flushes
// the in-progress run and emits the comma as its own token, exactly as
// original_source/src/retrieval/bm25_retriever.py._tokenize does. This test
// follows the algorithm (and the original implementation it must stay
// compatible with), producing 11 tokens with "," kept as its own token and
// the digit run split at the comma, not the spec's internally-contradictory
// 9-token worked example.
func TestTokenizeBudgetExampleMatchesOriginalPythonReading(t *testing.T) {
	got := Tokenize("预算3,000元 (A/B)")
	require.Equal(t, []string{"预", "算", "3", ",", "000", "元", "(", "A", "/", "B", ")"}, got)
}
