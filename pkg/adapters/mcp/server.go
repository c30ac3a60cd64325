package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Switchboard is the call API exposed as tools.
type Switchboard interface {
	Dial(ctx context.Context, callerID string) (*session.Call, error)
	Press(ctx context.Context, sessionID, digits string) error
	Await(ctx context.Context, sessionID string, cursor int) (runner.View, error)
	Hangup(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Active() []string
	Flows() []string
	Inspect(ctx context.Context, name, callerID string) (*domain.CallFlow, error)
}

// CallResult is what the caller heard, returned by every call tool.
type CallResult struct {
	SessionID string   `json:"session_id" jsonschema_description:"Id of the call"`
	Said      []string `json:"said" jsonschema_description:"Prompts played since the cursor, in order"`
	Awaiting  string   `json:"awaiting,omitempty" jsonschema_description:"Prompt waiting for keypad digits, empty when the call ended"`
	Digits    int      `json:"digits,omitempty" jsonschema_description:"Number of digits the awaiting prompt expects (0 means any)"`
	Cursor    int      `json:"cursor" jsonschema_description:"Pass to the next press_keys call to skip prompts already heard"`
	Ended     bool     `json:"ended" jsonschema_description:"True once the call has ended"`
	Reason    string   `json:"reason,omitempty" jsonschema_description:"Why the call ended: completed, cancelled or faulted"`
}

// StartCallArgs are the arguments of start_call.
type StartCallArgs struct {
	CallerID string `json:"caller_id"`
}

// PressKeysArgs are the arguments of press_keys.
type PressKeysArgs struct {
	SessionID string `json:"session_id"`
	Digits    string `json:"digits"`
	Cursor    int    `json:"cursor"`
}

// SessionArgs identify a call.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// GraphArgs are the arguments of get_graph.
type GraphArgs struct {
	Flow      string `json:"flow"`
	SessionID string `json:"session_id,omitempty"`
	CallerID  string `json:"caller_id,omitempty"`
}

// Server exposes the switchboard as an MCP server, letting agents place and
// drive calls through the portal.
type Server struct {
	sb        Switchboard
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sb Switchboard, version string, opts ...Option) *Server {
	s := &Server{
		sb:        sb,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("switchboard-mcp", version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_call",
		mcp.WithDescription("Call the voice portal as a caller. Returns the greeting and the first menu."),
		mcp.WithString("caller_id", mcp.Required(), mcp.Description("Id of the calling user")),
		mcp.WithOutputSchema[CallResult](),
	), mcp.NewStructuredToolHandler(s.handleStartCall))

	s.mcpServer.AddTool(mcp.NewTool("press_keys",
		mcp.WithDescription("Press keypad digits in answer to the awaiting prompt. Returns what the portal said next."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Id of the call")),
		mcp.WithString("digits", mcp.Required(), mcp.Description("Keypad digits, e.g. \"1\"")),
		mcp.WithNumber("cursor", mcp.Description("Cursor from the previous result")),
		mcp.WithOutputSchema[CallResult](),
	), mcp.NewStructuredToolHandler(s.handlePressKeys))

	s.mcpServer.AddTool(mcp.NewTool("hang_up",
		mcp.WithDescription("End a call."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Id of the call")),
		mcp.WithOutputSchema[CallResult](),
	), mcp.NewStructuredToolHandler(s.handleHangup))

	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Get the last checkpoint of a call: flow stack, data and visited states."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Id of the call")),
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render a portal flow as a Mermaid flowchart, optionally highlighting a call's path."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow name, see the switchboard://flows resource")),
		mcp.WithString("session_id", mcp.Description("Highlight the states this call visited")),
		mcp.WithString("caller_id", mcp.Description("Caller used to fetch data-driven flows")),
	), s.handleGraph)
}

func (s *Server) handleStartCall(ctx context.Context, request mcp.CallToolRequest, args StartCallArgs) (CallResult, error) {
	if args.CallerID == "" {
		return CallResult{}, errors.New("caller_id is required")
	}
	call, err := s.sb.Dial(ctx, args.CallerID)
	if err != nil {
		return CallResult{}, fmt.Errorf("dial failed: %w", err)
	}
	s.logger.Info("MCP call started", "session_id", call.ID, "caller_id", args.CallerID)
	return s.await(ctx, call.ID, 0)
}

func (s *Server) handlePressKeys(ctx context.Context, request mcp.CallToolRequest, args PressKeysArgs) (CallResult, error) {
	if err := s.sb.Press(ctx, args.SessionID, args.Digits); err != nil {
		s.logger.Warn("MCP press rejected", "session_id", args.SessionID, "error", err)
		return CallResult{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.await(ctx, args.SessionID, args.Cursor)
}

func (s *Server) handleHangup(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (CallResult, error) {
	if err := s.sb.Hangup(ctx, args.SessionID); err != nil {
		return CallResult{}, fmt.Errorf("hang up failed: %w", err)
	}
	return s.result(ctx, args.SessionID, runner.View{Closed: true})
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (*domain.Snapshot, error) {
	snap, err := s.sb.Snapshot(ctx, args.SessionID)
	if err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	return snap, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := GraphArgs{
		Flow:      request.GetString("flow", ""),
		SessionID: request.GetString("session_id", ""),
		CallerID:  request.GetString("caller_id", ""),
	}

	var overlay *graph.GraphOverlay
	if args.SessionID != "" {
		snap, err := s.sb.Snapshot(ctx, args.SessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
		}
		overlay = &graph.GraphOverlay{VisitedNodes: snap.History, CurrentNode: snap.Current()}
		if args.CallerID == "" {
			args.CallerID = snap.UserID
		}
	}

	g, err := s.sb.Inspect(ctx, args.Flow, args.CallerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(g, overlay)), nil
}

func (s *Server) await(ctx context.Context, id string, cursor int) (CallResult, error) {
	view, err := s.sb.Await(ctx, id, cursor)
	if err != nil {
		return CallResult{}, fmt.Errorf("call failed: %w", err)
	}
	return s.result(ctx, id, view)
}

func (s *Server) result(ctx context.Context, id string, view runner.View) (CallResult, error) {
	res := CallResult{SessionID: id, Said: make([]string, 0, len(view.Prompts)), Cursor: view.Cursor, Ended: view.Closed}
	said := view.Prompts
	if view.Awaiting != nil && len(said) > 0 {
		said = said[:len(said)-1]
	}
	for _, p := range said {
		res.Said = append(res.Said, p.Text())
	}
	if view.Awaiting != nil {
		res.Awaiting = view.Awaiting.Text()
		if view.Awaiting.Grammar != nil {
			res.Digits = view.Awaiting.Grammar.Length
		}
	}
	if res.Ended {
		snap, err := s.sb.Snapshot(ctx, id)
		if err != nil {
			return CallResult{}, fmt.Errorf("snapshot failed: %w", err)
		}
		res.Reason = string(snap.Reason)
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("switchboard://flows", "Portal flows",
		mcp.WithResourceDescription("Names of the flows get_graph can render"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text := ""
		for _, name := range s.sb.Flows() {
			text += name + "\n"
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "switchboard://flows",
				MIMEType: "text/plain",
				Text:     text,
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("switchboard://calls", "Active calls",
		mcp.WithResourceDescription("Ids of the calls currently running"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text := ""
		for _, id := range s.sb.Active() {
			text += id + "\n"
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "switchboard://calls",
				MIMEType: "text/plain",
				Text:     text,
			},
		}, nil
	})
}
