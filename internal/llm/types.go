// Package llm implements C1, the LLM Gateway: a uniform synchronous
// interface for chat-completion and embedding requests with retry and
// rate-shaping, per SPEC_FULL.md §4.1 / §6.2.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrUpstream is returned when Chat exhausts its retry budget against a
// non-fatal upstream failure.
var ErrUpstream = errors.New("llm: upstream chat request failed")

// ErrEmbedFailed is returned when Embed exhausts its retry budget for a
// batch.
var ErrEmbedFailed = errors.New("llm: embedding request failed")

// Gateway is the interface every component above C1 depends on. A single
// interface plus a provider dispatch table replaces the teacher's
// inheritance-shaped provider adapters, per spec.md §9's design note.
type Gateway interface {
	// Chat requests a single completion.
	Chat(ctx context.Context, req ChatRequest) (string, error)

	// Embed returns one L2-normalized embedding vector per input text,
	// batching internally (HTTPProviderConfig.EmbedBatch) and applying the adaptive
	// inter-batch delay described in SPEC_FULL.md §4.1.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// CountTokensApprox implements the budgeting heuristic from spec.md
	// §4.1: ceil(chineseChars/1.3 + otherChars/4), minimum 1. Never used
	// for billing.
	CountTokensApprox(text string) int

	// Close releases any underlying resources (idle connections, etc).
	Close() error
}

// ChatRequest mirrors the wire shape in spec.md §6.2.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Usage mirrors the provider-agnostic usage block in spec.md §6.2.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// providerError normalizes transport-level failures to the
// {Retryable, Throttled, Fatal} triad spec.md §6.2 requires the gateway to
// produce, regardless of which concrete HTTP provider is behind it.
type providerError struct {
	Retryable bool
	Throttled bool
	Fatal     bool
	Err       error
}

func (e *providerError) Error() string { return e.Err.Error() }
func (e *providerError) Unwrap() error { return e.Err }

// RetryConfig controls the exponential backoff applied to a gateway call,
// grounded on original_source/src/api_requests_dashscope.py's tenacity
// parameters (chat: 5 attempts, base 2s, cap 60s; embed: base 3s, cap 120s).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ChatRetryConfig is the retry policy for Chat calls, per spec.md §4.1.
func ChatRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 60 * time.Second}
}

// EmbedRetryConfig is the retry policy for Embed calls, per spec.md §4.1.
func EmbedRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, BaseDelay: 3 * time.Second, MaxDelay: 120 * time.Second}
}

// delayForAttempt returns base*2^attempt capped at max, attempt is 0-based.
func delayForAttempt(cfg RetryConfig, attempt int) time.Duration {
	d := cfg.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if d > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return d
}

// interBatchDelay implements spec.md §4.1's adaptive embedding delay:
// min(0.5 + 0.2*batchNumber, 3.0) seconds.
func interBatchDelay(batchNumber int) time.Duration {
	seconds := 0.5 + 0.2*float64(batchNumber)
	if seconds > 3.0 {
		seconds = 3.0
	}
	return time.Duration(seconds * float64(time.Second))
}

// throttleWait is the fixed pause spec.md §4.1 mandates on an explicit
// throttle signal before retrying.
const throttleWait = 10 * time.Second

// DefaultEmbedBatchSize is spec.md §4.1's default embedding batch size.
const DefaultEmbedBatchSize = 10
