package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragcore/ragcore"
	"github.com/ragcore/ragcore/internal/config"
	"github.com/ragcore/ragcore/internal/core"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Providers.ChatProvider = "static"
	cfg.Providers.EmbedProvider = "static"

	c, err := ragcore.New(cfg, t.TempDir())
	require.NoError(t, err)
	c.RegisterScenario("default", core.ScenarioConfig{SystemContent: "You are a helpful assistant."})

	srv, err := NewServer(c)
	require.NoError(t, err)
	return srv
}

func TestNewServerRejectsNilCore(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
}

func TestAskQuestionHandlerRejectsMissingQuestion(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.askQuestionHandler(context.Background(), nil, AskQuestionInput{TenantID: "t", ScenarioID: "default"})
	require.Error(t, err)
}

func TestAskQuestionHandlerRejectsUnpreparedNamespace(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.askQuestionHandler(context.Background(), nil, AskQuestionInput{TenantID: "t", ScenarioID: "default", Question: "hello"})
	require.Error(t, err)

	mapped := MapError(err)
	require.Equal(t, ErrCodeNamespaceUnknown, mapped.Code)
}

func TestPrepareNamespaceThenAskQuestionSucceeds(t *testing.T) {
	srv := newTestServer(t)

	_, prepOut, err := srv.prepareNamespaceHandler(context.Background(), nil, PrepareNamespaceInput{TenantID: "t", ScenarioID: "default"})
	require.NoError(t, err)
	require.Equal(t, 0, prepOut.Indexed)

	_, askOut, err := srv.askQuestionHandler(context.Background(), nil, AskQuestionInput{TenantID: "t", ScenarioID: "default", Question: "what is this about?"})
	require.NoError(t, err)
	require.Equal(t, "pure_llm", askOut.Mode)
}

func TestGetStatusHandlerReflectsPreparedNamespace(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.prepareNamespaceHandler(context.Background(), nil, PrepareNamespaceInput{TenantID: "t", ScenarioID: "default"})
	require.NoError(t, err)

	_, statusOut, err := srv.getStatusHandler(context.Background(), nil, GetStatusInput{TenantID: "t", ScenarioID: "default"})
	require.NoError(t, err)
	require.True(t, statusOut.IndicesLoaded)
}

func TestGetStatusHandlerRejectsMissingIdentifiers(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.getStatusHandler(context.Background(), nil, GetStatusInput{})
	require.Error(t, err)
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	srv := newTestServer(t)
	err := srv.Serve(context.Background(), "sse")
	require.Error(t, err)
}
