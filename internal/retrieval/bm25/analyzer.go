package bm25

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

// tokenizerName and analyzerName name the custom bleve components that
// apply Tokenize at both index and query time, grounded on the teacher's
// internal/store/bm25.go registration pattern (CodeTokenizerName /
// CodeAnalyzerName) adapted to the spec's CJK-aware tokenizer instead of
// the teacher's code-identifier tokenizer.
const (
	tokenizerName = "ragcore_bm25_tokenizer"
	analyzerName  = "ragcore_bm25_analyzer"
)

var registerOnce sync.Once

func ensureRegistered() {
	registerOnce.Do(func() {
		_ = registry.RegisterTokenizer(tokenizerName, tokenizerConstructor)
	})
}

func tokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveTokenizer{}, nil
}

// bleveTokenizer adapts Tokenize to bleve's analysis.Tokenizer interface.
type bleveTokenizer struct{}

func (bleveTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := Tokenize(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for i, tok := range tokens {
		start := strings.Index(text[offset:], tok)
		if start == -1 {
			start = 0
		} else {
			start += offset
		}
		end := start + len(tok)
		stream = append(stream, &analysis.Token{
			Term:     []byte(tok),
			Start:    start,
			End:      end,
			Position: i + 1,
			Type:     analysis.Ideographic,
		})
		offset = end
	}
	return stream
}

// buildMapping constructs the per-file bleve index mapping using the
// custom tokenizer as the sole analysis step (no stemming, no stop words:
// spec.md's tokenizer is the entire lexical contract, and altering it
// would desynchronize query-time and build-time tokenization).
func buildMapping() (*mapping.IndexMappingImpl, error) {
	ensureRegistered()

	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": tokenizerName,
	})
	if err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = analyzerName
	return im, nil
}
