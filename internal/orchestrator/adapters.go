package orchestrator

import (
	"context"

	"github.com/ragcore/ragcore/internal/agent/routing"
	"github.com/ragcore/ragcore/internal/core"
	"github.com/ragcore/ragcore/internal/llm"
	"github.com/ragcore/ragcore/internal/verify"
)

// routingChatAdapter lets a routing.Agent call through the shared
// llm.Gateway without that package importing llm's full interface,
// matching the "accept interfaces" seam used throughout the pipeline.
type routingChatAdapter struct{ gw llm.Gateway }

func (a routingChatAdapter) Chat(ctx context.Context, req routing.ChatRequest) (string, error) {
	return a.gw.Chat(ctx, llm.ChatRequest{
		Model:       req.Model,
		System:      req.System,
		User:        req.User,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}

// verifyChatAdapter is the same seam for verify.Verifier.
type verifyChatAdapter struct{ gw llm.Gateway }

func (a verifyChatAdapter) Chat(ctx context.Context, req verify.ChatRequest) (string, error) {
	return a.gw.Chat(ctx, llm.ChatRequest{
		Model:       req.Model,
		System:      req.System,
		User:        req.User,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}

// tokenCounterAdapter satisfies navigator.TokenCounter over an llm.Gateway.
type tokenCounterAdapter struct{ gw llm.Gateway }

func (a tokenCounterAdapter) CountTokensApprox(text string) int {
	return a.gw.CountTokensApprox(text)
}

// NewRoutingAgent builds C5 over the shared gateway, for callers (the
// root ragcore package) wiring a namespace's agents together.
func NewRoutingAgent(gw llm.Gateway, scenario core.ScenarioConfig, fastModel string) *routing.Agent {
	return routing.New(routingChatAdapter{gw}, scenario, fastModel)
}

// NewVerifier builds C7 over the shared gateway.
func NewVerifier(gw llm.Gateway, scenario core.ScenarioConfig, verifyModel string) *verify.Verifier {
	return verify.New(verifyChatAdapter{gw}, scenario, verifyModel)
}
