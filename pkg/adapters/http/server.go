package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// Switchboard is the call API the server exposes.
type Switchboard interface {
	Dial(ctx context.Context, callerID string) (*session.Call, error)
	Press(ctx context.Context, sessionID, digits string) error
	Await(ctx context.Context, sessionID string, cursor int) (runner.View, error)
	View(sessionID string, cursor int) (runner.View, bool)
	Hangup(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Watch(ctx context.Context, sessionID string) <-chan *domain.Snapshot
	Active() []string
	Flows() []string
	Inspect(ctx context.Context, name, callerID string) (*domain.CallFlow, error)
}

// CallResponse is what the caller heard since the requested cursor.
type CallResponse struct {
	SessionID string           `json:"session_id"`
	Prompts   []domain.Prompt  `json:"prompts"`
	Awaiting  *domain.Prompt   `json:"awaiting,omitempty"`
	Cursor    int              `json:"cursor"`
	Ended     bool             `json:"ended"`
	Snapshot  *domain.Snapshot `json:"snapshot,omitempty"`
}

// Server implements the generated ServerInterface.
type Server struct {
	sb       Switchboard
	logger   *slog.Logger
	metrics  prometheus.Gatherer
	version  string
	validate bool
}

var _ ServerInterface = (*Server)(nil)

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

// WithMetrics serves the gatherer's metrics on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// WithVersion reports the version on /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithRequestValidation rejects requests that break api/openapi.yaml before
// they reach a handler.
func WithRequestValidation() Option {
	return func(s *Server) {
		s.validate = true
	}
}

// NewHandler creates the HTTP handler for the switchboard.
func NewHandler(sb Switchboard, opts ...Option) http.Handler {
	s := &Server{sb: sb, logger: logging.NewNop(), version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if s.validate {
		validator, err := requestValidator(s.logger)
		if err != nil {
			s.logger.Error("request validation disabled", "error", err)
		} else {
			r.Use(validator)
		}
	}

	HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			s.logger.Warn("invalid request parameter", "path", r.URL.Path, "error", err)
		},
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartCall handles POST /calls. It answers once the call waits for input or ends.
func (s *Server) StartCall(w http.ResponseWriter, r *http.Request) {
	var body StartCallJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CallerID == "" {
		http.Error(w, "Invalid request body: caller_id is required", http.StatusBadRequest)
		s.logger.Warn("StartCall: invalid request body", "error", err)
		return
	}

	call, err := s.sb.Dial(r.Context(), body.CallerID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Dial error: %v", err), http.StatusInternalServerError)
		s.logger.Error("StartCall: dial failed", "error", err)
		return
	}

	resp, err := s.await(r.Context(), call.ID, 0)
	if err != nil {
		http.Error(w, fmt.Sprintf("Call error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, resp, s.logger)
}

// PressKeys handles POST /calls/{id}/input.
func (s *Server) PressKeys(w http.ResponseWriter, r *http.Request, id CallID) {
	var body PressKeysJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PressKeys: invalid request body", "error", err)
		return
	}

	if err := s.sb.Press(r.Context(), id, body.Digits); err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, runner.ErrNotAwaiting), errors.Is(err, runner.ErrLineClosed):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("PressKeys: input rejected", "session_id", id, "error", err, "size", len(body.Digits))
		}
		return
	}

	resp, err := s.await(r.Context(), id, body.Cursor)
	if err != nil {
		http.Error(w, fmt.Sprintf("Call error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

// GetCall handles GET /calls/{id}?cursor=N without waiting.
func (s *Server) GetCall(w http.ResponseWriter, r *http.Request, id CallID, params GetCallParams) {
	var cursor int
	if params.Cursor != nil {
		cursor = *params.Cursor
	}

	snap, err := s.sb.Snapshot(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, id, err)
		return
	}
	resp := CallResponse{SessionID: id, Snapshot: snap, Ended: snap.Terminated(), Cursor: cursor}
	if view, ok := s.sb.View(id, cursor); ok {
		resp.Prompts, resp.Awaiting, resp.Cursor = view.Prompts, view.Awaiting, view.Cursor
		resp.Ended = resp.Ended || view.Closed
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

// Hangup handles DELETE /calls/{id}.
func (s *Server) Hangup(w http.ResponseWriter, r *http.Request, id CallID) {
	if err := s.sb.Hangup(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Hangup error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCalls handles GET /calls.
func (s *Server) ListCalls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CallList{Calls: s.sb.Active()}, s.logger)
}

// ListFlows handles GET /flows.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FlowList{Flows: s.sb.Flows()}, s.logger)
}

// GetGraph handles GET /flows/{name}/graph, rendering a Mermaid flowchart.
// With session_id, the states the session visited are highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, name string, params GetGraphParams) {
	var callerID, sessionID string
	if params.CallerID != nil {
		callerID = *params.CallerID
	}
	if params.SessionID != nil {
		sessionID = *params.SessionID
	}

	var overlay *graph.GraphOverlay
	if sessionID != "" {
		snap, err := s.sb.Snapshot(r.Context(), sessionID)
		if err != nil {
			s.writeStoreError(w, sessionID, err)
			return
		}
		overlay = &graph.GraphOverlay{VisitedNodes: snap.History, CurrentNode: snap.Current()}
		if callerID == "" {
			callerID = snap.UserID
		}
	}

	g, err := s.sb.Inspect(r.Context(), name, callerID)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrFlowNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("Inspect error: %v", err), status)
		s.logger.Warn("GetGraph: inspect failed", "flow", name, "error", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		App:         "switchboard-http",
		Version:     s.version,
		ActiveCalls: len(s.sb.Active()),
	}, s.logger)
}

// await waits until the call needs input or ends and builds the response.
func (s *Server) await(ctx context.Context, id string, cursor int) (CallResponse, error) {
	view, err := s.sb.Await(ctx, id, cursor)
	if err != nil {
		return CallResponse{}, err
	}
	resp := CallResponse{
		SessionID: id,
		Prompts:   view.Prompts,
		Awaiting:  view.Awaiting,
		Cursor:    view.Cursor,
		Ended:     view.Closed,
	}
	if resp.Ended {
		if snap, err := s.sb.Snapshot(ctx, id); err == nil {
			resp.Snapshot = snap
		}
	}
	return resp, nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, fmt.Sprintf("session %s not found", id), http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("Store error: %v", err), http.StatusInternalServerError)
	s.logger.Error("session lookup failed", "session_id", id, "error", err)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
