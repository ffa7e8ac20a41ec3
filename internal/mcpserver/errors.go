package mcpserver

import (
	"context"
	"errors"
	"fmt"

	core_errors "github.com/ragcore/ragcore/internal/core/errors"
)

// JSON-RPC error codes, plus a small range of custom codes for
// ragcore-specific conditions, mirroring the teacher's ErrCode* block.
const (
	ErrCodeNamespaceUnknown = -32001
	ErrCodeIngestionFailed  = -32002
	ErrCodeTimeout          = -32003
	ErrCodeUpstreamFailed   = -32004

	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts a ragcore error into an MCP error, reading the
// structured core_errors.CoreError kind when present.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var coreErr *core_errors.CoreError
	if errors.As(err, &coreErr) {
		return mapCoreError(coreErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

func mapCoreError(ce *core_errors.CoreError) *MCPError {
	switch {
	case errors.Is(ce.Kind, core_errors.ErrNamespaceUnknown):
		return &MCPError{Code: ErrCodeNamespaceUnknown, Message: "Namespace not prepared. Call prepare_namespace first."}
	case errors.Is(ce.Kind, core_errors.ErrIngestion):
		return &MCPError{Code: ErrCodeIngestionFailed, Message: "Namespace preparation failed: " + ce.Error()}
	case errors.Is(ce.Kind, core_errors.ErrDeadline):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request deadline exceeded."}
	case errors.Is(ce.Kind, core_errors.ErrLLMUpstream):
		return &MCPError{Code: ErrCodeUpstreamFailed, Message: "LLM upstream call failed."}
	case errors.Is(ce.Kind, core_errors.ErrValidation):
		return &MCPError{Code: ErrCodeInvalidParams, Message: ce.Error()}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: ce.Error()}
	}
}

// NewInvalidParamsError creates an error for invalid tool parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for an unknown tool name.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool %q not found.", name)}
}
