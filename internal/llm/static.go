package llm

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// StaticProvider is a deterministic, network-free Gateway used by tests
// across retrieval, routing, navigation, verification and orchestration,
// grounded on the teacher's static embedder concept (internal/embed's
// fixture double) adapted to the chat+embed shape of this Gateway.
type StaticProvider struct {
	// ChatFunc, when set, overrides the canned chat response for a request.
	ChatFunc func(ChatRequest) (string, error)
	// Dimensions is the length of embeddings this provider generates.
	Dimensions int
	closed     bool
}

// NewStaticProvider returns a StaticProvider with 16-dimensional embeddings
// and an echo-style chat response.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{Dimensions: 16}
}

// Chat returns a deterministic string derived from the request, or the
// result of ChatFunc if set.
func (s *StaticProvider) Chat(_ context.Context, req ChatRequest) (string, error) {
	if s.ChatFunc != nil {
		return s.ChatFunc(req)
	}
	return fmt.Sprintf("static-answer: %s", req.User), nil
}

// Embed returns one deterministic unit vector per input text, derived from
// its SHA-256 digest so identical texts always embed identically and
// distinct texts embed differently.
func (s *StaticProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = normalize(deterministicVector(t, s.Dimensions))
	}
	return out, nil
}

// CountTokensApprox delegates to the shared heuristic.
func (s *StaticProvider) CountTokensApprox(text string) int {
	return countTokensApprox(text)
}

// Close marks the provider closed; idempotent and side-effect free.
func (s *StaticProvider) Close() error {
	s.closed = true
	return nil
}

func deterministicVector(text string, dims int) []float32 {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, dims)
	for i := 0; i < dims; i++ {
		b := sum[i%len(sum)]
		v[i] = float32(int(b)-128) / 128.0
	}
	return v
}
