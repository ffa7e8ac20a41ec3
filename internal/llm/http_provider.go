package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpProvider is the concrete Gateway backing every non-test deployment.
// It speaks the provider-agnostic wire contract of spec.md §6.2 and is
// grounded on internal/embed/ollama.go's HTTP client construction: a pooled
// Transport with no static client-level timeout, deadlines applied per
// request via context instead (a static timeout would defeat per-call
// deadline control, same lesson the teacher's comment records).
type httpProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	chatModel   string
	fastModel   string
	verifyModel string
	embedModel  string
	embedBatch  int
}

// HTTPProviderConfig configures a provider-agnostic chat+embedding backend.
type HTTPProviderConfig struct {
	BaseURL     string
	APIKey      string
	ChatModel   string
	FastModel   string
	VerifyModel string
	EmbedModel  string
	EmbedBatch  int
}

// NewHTTPProvider builds a Gateway that talks to a DashScope-compatible (or
// any provider implementing spec.md §6.2's wire shape) chat+embedding
// endpoint.
func NewHTTPProvider(cfg HTTPProviderConfig) Gateway {
	batch := cfg.EmbedBatch
	if batch <= 0 {
		batch = DefaultEmbedBatchSize
	}
	return &httpProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			// No Client.Timeout: every call supplies its own
			// context.WithTimeout so retry/backoff can reason about
			// per-attempt deadlines independently.
		},
		chatModel:   cfg.ChatModel,
		fastModel:   cfg.FastModel,
		verifyModel: cfg.VerifyModel,
		embedModel:  cfg.EmbedModel,
		embedBatch:  batch,
	}
}

type chatWireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatWireResponse struct {
	Text  string `json:"text"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	RequestID string `json:"request_id"`
	Error     *wireError `json:"error,omitempty"`
}

type embedWireRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	TextType string   `json:"text_type"`
}

type embedWireResponse struct {
	Embeddings []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"embeddings"`
	Usage struct {
		InputTokens int `json:"input_tokens"`
	} `json:"usage"`
	Error *wireError `json:"error,omitempty"`
}

type wireError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Throttled bool   `json:"throttled"`
}

// Chat implements Gateway.Chat with the retry policy in ChatRetryConfig.
func (p *httpProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = p.chatModel
	}
	wire := chatWireRequest{
		Model: model,
		Messages: []wireMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	cfg := ChatRetryConfig()
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, delayForAttempt(cfg, attempt-1)); err != nil {
				return "", err
			}
		}

		text, err := p.doChat(ctx, wire)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var pe *providerError
		if perr, ok := err.(*providerError); ok {
			pe = perr
		}
		if pe != nil && pe.Fatal {
			return "", err
		}
		if pe != nil && pe.Throttled {
			if err := sleepCtx(ctx, throttleWait); err != nil {
				return "", err
			}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

func (p *httpProvider) doChat(ctx context.Context, wire chatWireRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resultCh := make(chan struct {
		resp chatWireResponse
		err  error
	}, 1)

	go func() {
		var out chatWireResponse
		err := p.post(callCtx, "/chat/completions", wire, &out)
		resultCh <- struct {
			resp chatWireResponse
			err  error
		}{out, err}
	}()

	select {
	case <-callCtx.Done():
		return "", callCtx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return "", r.err
		}
		if r.resp.Error != nil {
			return "", classifyWireError(r.resp.Error)
		}
		return r.resp.Text, nil
	}
}

// Embed implements Gateway.Embed, batching per embedBatch and applying the
// adaptive inter-batch delay and throttle handling from spec.md §4.1.
func (p *httpProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for batchNumber := 0; ; batchNumber++ {
		start := batchNumber * p.embedBatch
		if start >= len(texts) {
			break
		}
		end := start + p.embedBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := p.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbedFailed, err)
		}
		out = append(out, vecs...)

		if end < len(texts) {
			if err := sleepCtx(ctx, interBatchDelay(batchNumber)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (p *httpProvider) embedBatchWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	cfg := EmbedRetryConfig()
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, delayForAttempt(cfg, attempt-1)); err != nil {
				return nil, err
			}
		}

		vecs, err := p.doEmbed(ctx, batch)
		if err == nil {
			return vecs, nil
		}
		lastErr = err

		if pe, ok := err.(*providerError); ok {
			if pe.Fatal {
				return nil, err
			}
			if pe.Throttled {
				if err := sleepCtx(ctx, throttleWait); err != nil {
					return nil, err
				}
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (p *httpProvider) doEmbed(ctx context.Context, batch []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var out embedWireResponse
	req := embedWireRequest{Model: p.embedModel, Input: batch, TextType: "document"}
	if err := p.post(callCtx, "/embeddings", req, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, classifyWireError(out.Error)
	}
	vecs := make([][]float32, len(out.Embeddings))
	for i, e := range out.Embeddings {
		vecs[i] = normalize(e.Embedding)
	}
	return vecs, nil
}

func (p *httpProvider) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return &providerError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &providerError{Retryable: true, Err: err}
	}
	if resp.StatusCode >= 500 {
		return &providerError{Retryable: true, Err: fmt.Errorf("upstream status %d: %s", resp.StatusCode, data)}
	}
	if resp.StatusCode == 429 {
		return &providerError{Retryable: true, Throttled: true, Err: fmt.Errorf("throttled: %s", data)}
	}
	if resp.StatusCode >= 400 {
		return &providerError{Fatal: true, Err: fmt.Errorf("upstream status %d: %s", resp.StatusCode, data)}
	}
	return json.Unmarshal(data, out)
}

func classifyWireError(e *wireError) error {
	if e.Throttled || strings.Contains(strings.ToLower(e.Message), "throttl") || strings.Contains(strings.ToLower(e.Message), "rate") {
		return &providerError{Retryable: true, Throttled: true, Err: fmt.Errorf("%s: %s", e.Code, e.Message)}
	}
	if e.Status >= 500 || e.Status == 0 {
		return &providerError{Retryable: true, Err: fmt.Errorf("%s: %s", e.Code, e.Message)}
	}
	return &providerError{Fatal: true, Err: fmt.Errorf("%s: %s", e.Code, e.Message)}
}

// CountTokensApprox implements Gateway.CountTokensApprox.
func (p *httpProvider) CountTokensApprox(text string) int {
	return countTokensApprox(text)
}

// Close releases idle connections held by the transport.
func (p *httpProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
