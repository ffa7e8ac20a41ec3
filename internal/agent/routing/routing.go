// Package routing implements C5, the Routing Agent, per SPEC_FULL.md §4.5:
// LLM-driven query analysis and document-chunk selection with rule-based
// fallbacks, grounded on
// original_source/src/agents/routing_agent.py.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ragcore/ragcore/internal/core"
)

// ChatCaller is the capability Agent needs from C1.
type ChatCaller interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// ChatRequest mirrors llm.ChatRequest's shape without importing the llm
// package directly, so this package depends only on the interface it uses.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Agent is C5.
type Agent struct {
	chat   ChatCaller
	config core.ScenarioConfig
	// FastModel is the model name used for both AnalyzeQuery and
	// RouteDocuments calls, per spec.md §4.5 ("fast model").
	FastModel string
}

// New builds a routing Agent for one scenario's configuration.
func New(chat ChatCaller, cfg core.ScenarioConfig, fastModel string) *Agent {
	return &Agent{chat: chat, config: cfg, FastModel: fastModel}
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type queryAnalysisWire struct {
	QuestionType string   `json:"question_type"`
	Keywords     []string `json:"keywords"`
	Difficulty   string   `json:"difficulty"`
	Category     string   `json:"category"`
}

// AnalyzeQuery implements spec.md §4.5's AnalyzeQuery operation.
func (a *Agent) AnalyzeQuery(ctx context.Context, question string) core.QueryAnalysis {
	prompt := a.config.QuestionAnalysisPrompt
	if prompt == "" {
		prompt = defaultAnalysisPrompt
	}
	system := a.config.SystemContent
	if system == "" {
		system = "You are a precise question-analysis assistant. Respond with strict JSON only."
	}

	resp, err := a.chat.Chat(ctx, ChatRequest{
		Model:       a.FastModel,
		System:      system,
		User:        fmt.Sprintf(prompt, question),
		Temperature: 0,
		MaxTokens:   500,
	})

	var result core.QueryAnalysis
	if err == nil {
		if wire, ok := parseJSON[queryAnalysisWire](resp); ok {
			result = core.QueryAnalysis{
				QuestionType: core.QuestionType(wire.QuestionType),
				Keywords:     wire.Keywords,
				Difficulty:   core.Difficulty(wire.Difficulty),
				Category:     wire.Category,
			}
		}
	}
	if result.QuestionType == "" {
		result = ruleBasedAnalysis(question)
	}

	return a.enhanceWithKeywords(result, question)
}

const defaultAnalysisPrompt = `Analyze the following question.

Question: %s

Respond with strict JSON:
{"question_type": "fact|analysis|guidance", "keywords": ["..."], "difficulty": "simple|medium|complex", "category": "..."}`

// guidanceTriggers and analysisTriggers are spec.md §4.5's fallback
// classification word sets: the Chinese triggers named in the spec. They
// are fixed package-level lists; no ScenarioConfig field changes them.
var guidanceTriggers = []string{"如何", "怎么", "怎样", "建议"}
var analysisTriggers = []string{"分析", "比较", "评估", "判断"}

func ruleBasedAnalysis(question string) core.QueryAnalysis {
	questionType := core.QuestionFact
	if containsAny(question, guidanceTriggers) {
		questionType = core.QuestionGuidance
	} else if containsAny(question, analysisTriggers) {
		questionType = core.QuestionAnalysis
	}

	keywords := []string{}
	if len(keywords) == 0 {
		runes := []rune(question)
		if len(runes) > 10 {
			runes = runes[:10]
		}
		keywords = []string{string(runes)}
	}

	return core.QueryAnalysis{
		QuestionType: questionType,
		Keywords:     keywords,
		Difficulty:   core.DifficultyMedium,
		Category:     "other",
	}
}

// enhanceWithKeywords augments (never replaces) the analysis keywords by
// scanning the scenario keyword library, per spec.md §4.5, capped at 5.
func (a *Agent) enhanceWithKeywords(result core.QueryAnalysis, question string) core.QueryAnalysis {
	seen := make(map[string]struct{}, len(result.Keywords))
	merged := make([]string, 0, 5)
	for _, k := range result.Keywords {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, k)
		if len(merged) >= 5 {
			break
		}
	}

	for _, words := range a.config.KeywordLibrary {
		for _, w := range words {
			if len(merged) >= 5 {
				break
			}
			if _, ok := seen[w]; ok {
				continue
			}
			if strings.Contains(question, w) {
				seen[w] = struct{}{}
				merged = append(merged, w)
			}
		}
	}

	result.Keywords = merged
	return result
}

type routeWire struct {
	SelectedIndices []int   `json:"selected_indices"`
	Reasoning       string  `json:"reasoning"`
	Confidence      float64 `json:"confidence"`
	ShouldExpand    bool    `json:"should_expand"`
}

// RouteDocuments implements spec.md §4.5's RouteDocuments operation.
func (a *Agent) RouteDocuments(ctx context.Context, chunks []core.RetrievalHit, question, history string, topK int) core.RoutingDecision {
	if len(chunks) <= topK {
		return core.RoutingDecision{
			SelectedIndices: indicesUpTo(len(chunks)),
			Reasoning:       "candidate set already within top_k, returning all",
			Confidence:      0.9,
		}
	}

	candidates := chunks
	if len(candidates) > 15 {
		candidates = candidates[:15]
	}
	chunksInfo := formatChunksForRouting(candidates)

	prompt := a.config.DocumentRoutingPrompt
	if prompt == "" {
		prompt = defaultRoutingPrompt
	}
	system := a.config.SystemContent
	if system == "" {
		system = "You are a precise document-routing assistant. Respond with strict JSON only."
	}

	resp, err := a.chat.Chat(ctx, ChatRequest{
		Model:       a.FastModel,
		System:      system,
		User:        fmt.Sprintf(prompt, question, chunksInfo),
		Temperature: 0,
		MaxTokens:   400,
	})
	if err != nil {
		return fallbackRouting(topK, "LLM routing call failed, returning top-k", 0.7)
	}

	wire, ok := parseJSON[routeWire](resp)
	if !ok || len(wire.SelectedIndices) == 0 {
		return fallbackRouting(topK, "LLM routing response unparsable, returning top-k", 0.7)
	}

	selected := make([]int, 0, topK)
	for _, idx := range wire.SelectedIndices {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		selected = append(selected, idx)
		if len(selected) >= topK {
			break
		}
	}
	if len(selected) == 0 {
		return fallbackRouting(topK, "LLM routing returned no valid indices, returning top-k", 0.7)
	}

	return core.RoutingDecision{
		SelectedIndices: selected,
		Reasoning:       wire.Reasoning,
		Confidence:      wire.Confidence,
		ShouldExpand:    wire.ShouldExpand,
	}
}

const defaultRoutingPrompt = `Question: %s

Candidate chunks:
%s

Select the most relevant chunks (at most a handful). Respond with strict JSON:
{"selected_indices": [0,1,2], "reasoning": "...", "confidence": 0.85, "should_expand": false}`

func fallbackRouting(topK int, reasoning string, confidence float64) core.RoutingDecision {
	return core.RoutingDecision{
		SelectedIndices: indicesUpTo(topK),
		Reasoning:       reasoning,
		Confidence:      confidence,
	}
}

func indicesUpTo(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func formatChunksForRouting(chunks []core.RetrievalHit) string {
	var b strings.Builder
	for i, c := range chunks {
		text := c.Text
		if len(text) > 150 {
			text = text[:150]
		}
		fmt.Fprintf(&b, "[%d] (source:%s, score:%.3f) %s...\n", i, c.Source, c.Score, text)
	}
	return b.String()
}

// ShouldExpandContext implements spec.md §4.5's ShouldExpandContext
// operation.
func ShouldExpandContext(chunk core.RetrievalHit) bool {
	text := chunk.Text
	if strings.HasSuffix(text, "...") || strings.HasSuffix(text, "…") {
		return true
	}
	if strings.HasSuffix(text, "：") || strings.HasSuffix(text, "，") {
		return true
	}
	if len([]rune(text)) < 100 {
		return true
	}
	if strings.Contains(text, "（续") || strings.Contains(text, "接上") {
		return true
	}
	return false
}

func containsAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

func parseJSON[T any](response string) (T, bool) {
	var out T
	if err := json.Unmarshal([]byte(response), &out); err == nil {
		return out, true
	}
	match := jsonObjectPattern.FindString(response)
	if match == "" {
		return out, false
	}
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return out, false
	}
	return out, true
}
