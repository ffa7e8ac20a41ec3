package llm

import "math"

// countTokensApprox implements spec.md §4.1's heuristic exactly as
// original_source/src/api_requests_dashscope.py.count_tokens computes it:
// ceil(chineseChars/1.3 + otherChars/4), minimum 1.
func countTokensApprox(text string) int {
	var chinese, other int
	for _, r := range text {
		if isCJK(r) {
			chinese++
		} else {
			other++
		}
	}
	est := float64(chinese)/1.3 + float64(other)/4.0
	n := int(math.Ceil(est))
	if n < 1 {
		return 1
	}
	return n
}

// isCJK reports whether r is a CJK Unified Ideograph, the same range used
// by the BM25 tokenizer (U+4E00-U+9FFF).
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}
