package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports/tests"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	flights, users := tests.Fixture()
	sb := switchboard.New(memory.NewReservations(flights, users))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sb.Shutdown(ctx)
	})
	return NewServer(sb, "test")
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestServer_CallThroughTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStartCall(ctx, callTool("start_call", nil), StartCallArgs{CallerID: "u-ada"})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	assert.Equal(t, []string{"Hello, Ada Lovelace."}, res.Said)
	assert.Contains(t, res.Awaiting, "press")
	assert.Equal(t, 1, res.Digits)
	assert.False(t, res.Ended)

	res, err = s.handlePressKeys(ctx, callTool("press_keys", nil), PressKeysArgs{SessionID: res.SessionID, Digits: "5", Cursor: res.Cursor})
	require.NoError(t, err)
	assert.True(t, res.Ended)
	assert.Equal(t, string(domain.ReasonCompleted), res.Reason)
	require.NotEmpty(t, res.Said)
	assert.Equal(t, "Thank you for calling. Goodbye.", res.Said[len(res.Said)-1])
	assert.Empty(t, res.Awaiting)

	_, err = s.handlePressKeys(ctx, callTool("press_keys", nil), PressKeysArgs{SessionID: res.SessionID, Digits: "1"})
	assert.Error(t, err)
}

func TestServer_HangUp(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStartCall(ctx, callTool("start_call", nil), StartCallArgs{CallerID: "u-bob"})
	require.NoError(t, err)

	ended, err := s.handleHangup(ctx, callTool("hang_up", nil), SessionArgs{SessionID: res.SessionID})
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.Equal(t, string(domain.ReasonCancelled), ended.Reason)

	snap, err := s.handleSnapshot(ctx, callTool("get_snapshot", nil), SessionArgs{SessionID: res.SessionID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTerminated, snap.Status)

	_, err = s.handleHangup(ctx, callTool("hang_up", nil), SessionArgs{SessionID: res.SessionID})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_StartCallValidation(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleStartCall(context.Background(), callTool("start_call", nil), StartCallArgs{})
	assert.Error(t, err)
}

func TestServer_Graph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	out, err := s.handleGraph(ctx, callTool("get_graph", map[string]any{"flow": "portal"}))
	require.NoError(t, err)
	require.False(t, out.IsError)
	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph TD")

	call, err := s.handleStartCall(ctx, callTool("start_call", nil), StartCallArgs{CallerID: "u-ada"})
	require.NoError(t, err)
	out, err = s.handleGraph(ctx, callTool("get_graph", map[string]any{"flow": "portal", "session_id": call.SessionID}))
	require.NoError(t, err)
	text = out.Content[0].(mcp.TextContent)
	assert.Contains(t, text.Text, "class mainMenu current;")

	out, err = s.handleGraph(ctx, callTool("get_graph", map[string]any{"flow": "nope"}))
	require.NoError(t, err)
	assert.True(t, out.IsError)
}

func TestServer_ListsToolsAndResources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, tool := range []string{"start_call", "press_keys", "hang_up", "get_snapshot", "get_graph"} {
		assert.Contains(t, string(raw), `"`+tool+`"`)
	}

	resp = s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"switchboard://flows"}}`))
	raw, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `cancelAll\nlistActive\nportal\nsearch\n`)
}
