// Package mcpserver exposes the ragcore Core over the Model Context
// Protocol, grounded on the teacher's internal/mcp/server.go
// (mcp.NewServer/AddTool/Run wiring, handler signature, transport switch).
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragcore/ragcore"
	"github.com/ragcore/ragcore/pkg/version"
)

// Server is the MCP front door over a ragcore.Core.
type Server struct {
	mcp    *mcp.Server
	core   *ragcore.Core
	logger *slog.Logger
}

// AskQuestionInput is ask_question's tool input.
type AskQuestionInput struct {
	TenantID   string `json:"tenant_id" jsonschema:"tenant identifier that owns the namespace"`
	ScenarioID string `json:"scenario_id" jsonschema:"scenario identifier within the tenant"`
	Question   string `json:"question" jsonschema:"the natural-language question to answer"`
}

// AskQuestionOutput is ask_question's tool output.
type AskQuestionOutput struct {
	Answer           string  `json:"answer" jsonschema:"the generated answer"`
	Mode             string  `json:"mode" jsonschema:"\"rag\" or \"pure_llm\""`
	Confidence       float64 `json:"confidence" jsonschema:"combined verification confidence, 0 to 1"`
	RelevantPages    []int   `json:"relevant_pages,omitempty" jsonschema:"source page numbers the answer drew from"`
	ProcessingTimeMs int64   `json:"processing_time_ms" jsonschema:"total wall-clock time for the request"`
}

// PrepareNamespaceInput is prepare_namespace's tool input.
type PrepareNamespaceInput struct {
	TenantID     string `json:"tenant_id" jsonschema:"tenant identifier that owns the namespace"`
	ScenarioID   string `json:"scenario_id" jsonschema:"scenario identifier within the tenant"`
	ForceRebuild bool   `json:"force_rebuild,omitempty" jsonschema:"discard any already-loaded indices and reload from disk"`
}

// PrepareNamespaceOutput is prepare_namespace's tool output.
type PrepareNamespaceOutput struct {
	Parsed      int   `json:"parsed" jsonschema:"chunks discovered on disk"`
	Indexed     int   `json:"indexed" jsonschema:"chunks now searchable"`
	TotalTimeMs int64 `json:"total_time_ms" jsonschema:"wall-clock time for the call"`
}

// GetStatusInput is get_status's tool input.
type GetStatusInput struct {
	TenantID   string `json:"tenant_id" jsonschema:"tenant identifier that owns the namespace"`
	ScenarioID string `json:"scenario_id" jsonschema:"scenario identifier within the tenant"`
}

// GetStatusOutput is get_status's tool output.
type GetStatusOutput struct {
	IndicesLoaded     bool  `json:"indices_loaded" jsonschema:"whether the namespace's indices are currently in memory"`
	ExactCacheHits    int   `json:"exact_cache_entries" jsonschema:"entries currently held in the exact-match cache tier"`
	SemanticCacheHits int   `json:"semantic_cache_entries" jsonschema:"entries currently held in the semantic cache tier"`
	TotalQueries      int64 `json:"total_queries" jsonschema:"total hybrid retrieval queries served by this namespace"`
}

// NewServer creates a new MCP server over core.
func NewServer(c *ragcore.Core) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("mcpserver: core is required")
	}

	s := &Server{core: c, logger: slog.Default()}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "ragcore",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.logger.Debug("registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a natural-language question against a tenant's prepared document namespace, using hybrid retrieval, agentic routing and citation verification. Falls back to a plain LLM answer when no supporting documents are found.",
	}, s.askQuestionHandler)
	s.logger.Debug("registered tool", slog.String("name", "ask_question"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "prepare_namespace",
		Description: "Load (or reload) a tenant/scenario's BM25 and vector indices from disk so ask_question can serve it. Call this once per namespace before asking questions, and again with force_rebuild after re-ingesting documents.",
	}, s.prepareNamespaceHandler)
	s.logger.Debug("registered tool", slog.String("name", "prepare_namespace"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_status",
		Description: "Report whether a namespace's indices are loaded and its cache/retrieval occupancy statistics.",
	}, s.getStatusHandler)
	s.logger.Debug("registered tool", slog.String("name", "get_status"))

	s.logger.Info("MCP tools registered", slog.Int("count", 3))
}

func (s *Server) askQuestionHandler(ctx context.Context, _ *mcp.CallToolRequest, input AskQuestionInput) (
	*mcp.CallToolResult,
	AskQuestionOutput,
	error,
) {
	if input.TenantID == "" || input.ScenarioID == "" {
		return nil, AskQuestionOutput{}, NewInvalidParamsError("tenant_id and scenario_id are required")
	}
	if input.Question == "" {
		return nil, AskQuestionOutput{}, NewInvalidParamsError("question is required")
	}

	record, err := s.core.ProcessQuestion(ctx, input.TenantID, input.ScenarioID, input.Question)
	if err != nil {
		return nil, AskQuestionOutput{}, MapError(err)
	}

	return nil, AskQuestionOutput{
		Answer:           record.Answer,
		Mode:             string(record.Mode),
		Confidence:       record.Confidence,
		RelevantPages:    record.RelevantPages,
		ProcessingTimeMs: record.ProcessingTimeMs,
	}, nil
}

func (s *Server) prepareNamespaceHandler(ctx context.Context, _ *mcp.CallToolRequest, input PrepareNamespaceInput) (
	*mcp.CallToolResult,
	PrepareNamespaceOutput,
	error,
) {
	if input.TenantID == "" || input.ScenarioID == "" {
		return nil, PrepareNamespaceOutput{}, NewInvalidParamsError("tenant_id and scenario_id are required")
	}

	result, err := s.core.PrepareNamespace(ctx, input.TenantID, input.ScenarioID, input.ForceRebuild)
	if err != nil {
		return nil, PrepareNamespaceOutput{}, MapError(err)
	}

	return nil, PrepareNamespaceOutput{
		Parsed:      result.Parsed,
		Indexed:     result.Indexed,
		TotalTimeMs: result.TotalTimeMs,
	}, nil
}

func (s *Server) getStatusHandler(_ context.Context, _ *mcp.CallToolRequest, input GetStatusInput) (
	*mcp.CallToolResult,
	GetStatusOutput,
	error,
) {
	if input.TenantID == "" || input.ScenarioID == "" {
		return nil, GetStatusOutput{}, NewInvalidParamsError("tenant_id and scenario_id are required")
	}

	stats, err := s.core.GetStatus(input.TenantID, input.ScenarioID)
	if err != nil {
		return nil, GetStatusOutput{}, MapError(err)
	}

	return nil, GetStatusOutput{
		IndicesLoaded:     stats.IndicesLoaded,
		ExactCacheHits:    stats.CacheStats.ExactEntries,
		SemanticCacheHits: stats.CacheStats.SemanticEntries,
		TotalQueries:      stats.RetrievalStats.TotalQueries,
	}, nil
}

// Serve starts the server with the given transport. Only "stdio" is
// currently supported, matching the teacher's transport switch.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources, including the underlying Core's
// gateway connections.
func (s *Server) Close() error {
	return s.core.Close()
}
