// Package errors defines the error kinds surfaced by the ragcore pipeline
// and a small structured wrapper used to carry an operation name alongside
// a kind, without the larger severity/suggestion machinery a general-purpose
// CLI error type would need.
package errors

import "errors"

// Kinds, not types: every propagation-policy decision in the pipeline is
// expressed as one of these eight sentinels, checked with errors.Is.
var (
	// ErrLLMUpstream is returned when a chat-completion call exhausts its
	// retries against the LLM provider.
	ErrLLMUpstream = errors.New("llm upstream failure")

	// ErrEmbedding is the kind for an embedding call that exhausts its
	// retries. No ragcore package returns it; llm reports that case with
	// llm.ErrEmbedFailed.
	ErrEmbedding = errors.New("embedding failure")

	// ErrIndexLoad is returned when a namespace's on-disk index cannot be
	// loaded (missing files, unreadable permissions).
	ErrIndexLoad = errors.New("index load failure")

	// ErrIndexCorrupt is the kind for an on-disk index that fails integrity
	// validation. No ragcore package returns it: a file whose index cannot
	// be opened is skipped during namespace load.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrIngestion is returned by PrepareNamespace when ingestion fails.
	ErrIngestion = errors.New("ingestion failure")

	// ErrDeadline is returned when a request-wide or per-call deadline
	// elapses before an answer could be produced.
	ErrDeadline = errors.New("deadline exceeded")

	// ErrValidation is returned for malformed caller input.
	ErrValidation = errors.New("validation failure")

	// ErrNamespaceUnknown is returned when a (tenant_id, scenario_id) pair
	// has never been prepared and no indices exist for it.
	ErrNamespaceUnknown = errors.New("namespace unknown")
)

// CoreError wraps a kind with the operation that produced it, so callers at
// the CLI/MCP boundary can render "op: kind: detail" without needing to know
// the pipeline's internal call graph.
type CoreError struct {
	Kind error
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap lets errors.Is(err, ErrLLMUpstream) etc. see through CoreError.
func (e *CoreError) Unwrap() error {
	return e.Kind
}

// Wrap builds a CoreError for kind produced during op, with optional detail.
func Wrap(kind error, op string, err error) *CoreError {
	return &CoreError{Kind: kind, Op: op, Err: err}
}
