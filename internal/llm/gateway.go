package llm

import (
	"fmt"
	"math"
	"os"
)

// GatewayConfig selects and configures a provider by name, mirroring the
// teacher's provider-dispatch table in internal/embed/factory.go.
type GatewayConfig struct {
	ChatProvider  string
	EmbedProvider string
	ChatModel     string
	FastModel     string
	VerifyModel   string
	EmbedModel    string
	BaseURL       string
	APIKeyEnv     string
	EmbedBatch    int
}

// New constructs a Gateway from a GatewayConfig, resolving the API key from
// the named environment variable. The provider is chosen by ChatProvider
// alone: "", "dashscope" and "openai-compatible" select the HTTP provider,
// "static" selects the in-process StaticProvider (no network calls), and
// any other name is an error. EmbedProvider is not consulted.
func New(cfg GatewayConfig) (Gateway, error) {
	switch cfg.ChatProvider {
	case "", "dashscope", "openai-compatible":
		apiKey := ""
		if cfg.APIKeyEnv != "" {
			apiKey = os.Getenv(cfg.APIKeyEnv)
		}
		return NewHTTPProvider(HTTPProviderConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      apiKey,
			ChatModel:   cfg.ChatModel,
			FastModel:   cfg.FastModel,
			VerifyModel: cfg.VerifyModel,
			EmbedModel:  cfg.EmbedModel,
			EmbedBatch:  cfg.EmbedBatch,
		}), nil
	case "static":
		return NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("llm: unknown chat provider %q", cfg.ChatProvider)
	}
}

// normalize L2-normalizes an embedding vector in place semantics (returns a
// new slice), per spec.md §3's requirement that every stored and query
// vector is unit length so inner product equals cosine similarity.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
