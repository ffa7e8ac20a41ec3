// Package bm25 implements C2, the BM25 Retriever, per SPEC_FULL.md §4.2.
package bm25

import "unicode"

// Tokenize implements spec.md §4.2's fixed tokenization rule, which must
// match at index build time and query time:
//
//  1. A CJK Unified Ideograph (U+4E00-U+9FFF) is its own single-character
//     token; any in-progress alphanumeric run is flushed first.
//  2. An ASCII letter or digit extends the current alphanumeric token.
//  3. Whitespace flushes the current token.
//  4. Any other non-space character flushes the current token, then is
//     emitted as its own single-character token.
//
// Grounded on original_source/src/retrieval/bm25_retriever.py._tokenize,
// carried over verbatim in algorithm (not code) since it must reproduce the
// same corpus the Python ingestor built, regardless of implementation
// language.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/2)
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case isASCIIAlnum(r):
			current = append(current, r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
