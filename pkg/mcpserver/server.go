// Package mcpserver implements an MCP server over SSE that exposes the
// pipeline entry points as remotely invocable tools. Clients open an event
// stream on GET /sse, then POST JSON-RPC 2.0 requests to the per-session
// messages endpoint; responses are pushed back over the stream.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketbot/pkg/logx"
	"marketbot/pkg/tools"
	"marketbot/pkg/version"
)

// ServiceName identifies this server in initialize and health responses.
const ServiceName = "marketing-agent"

// protocolVersion is the MCP protocol revision the server speaks.
const protocolVersion = "2024-11-05"

// sessionBuffer is the per-session outbound event queue size.
const sessionBuffer = 16

// session is one connected SSE client. done is closed when the stream ends
// so pending pushes stop waiting.
type session struct {
	id     string
	events chan []byte
	done   chan struct{}
}

// Server dispatches MCP requests to the pipeline layer.
type Server struct {
	pipelines PipelineService
	logger    *logx.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates an MCP server over the given pipeline service.
func NewServer(pipelines PipelineService, logger *logx.Logger) *Server {
	if logger == nil {
		logger = logx.NewLogger("mcp-server")
	}
	return &Server{
		pipelines: pipelines,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("POST /messages/", s.handleMessage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// handleSSE opens the event stream, issues a session ID, and tells the
// client where to POST messages.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := &session{
		id:     uuid.NewString(),
		events: make(chan []byte, sessionBuffer),
		done:   make(chan struct{}),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		close(sess.done)
		s.logger.Debug("session %s closed", sess.id)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	fmt.Fprintf(w, "event: endpoint\ndata: /messages/?session_id=%s\n\n", sess.id)
	flusher.Flush()

	s.logger.Info("session %s connected", sess.id)

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-sess.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleMessage accepts a JSON-RPC request and returns 202 immediately; the
// request is dispatched off the POST and the response pushed to the caller's
// event stream. Long pipeline runs are therefore not cut short by a client
// POST timeout or dropped connection.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.push(sess, errorResponse(nil, codeParseError, "Parse error", err.Error()))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	go func() {
		if resp := s.handleRequest(context.Background(), &req); resp != nil {
			s.push(sess, resp)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

// handleRequest dispatches one JSON-RPC request. Notifications return nil.
func (s *Server) handleRequest(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    ServiceName,
				"version": version.Version,
			},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

// handleToolsList returns the remote tool catalog.
func (s *Server) handleToolsList(req *JSONRPCRequest) *JSONRPCResponse {
	defs := remoteToolDefs()
	mcpTools := make([]map[string]any, 0, len(defs))
	for i := range defs {
		mcpTools = append(mcpTools, map[string]any{
			"name":        defs[i].Name,
			"description": defs[i].Description,
			"inputSchema": convertInputSchema(&defs[i].InputSchema),
		})
	}
	return resultResponse(req.ID, map[string]any{"tools": mcpTools})
}

// handleToolsCall runs a pipeline and returns the result as tool content.
// Pipeline failures and panics become isError tool results so a single bad
// invocation never takes the server down.
func (s *Server) handleToolsCall(ctx context.Context, req *JSONRPCRequest) (resp *JSONRPCResponse) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	known := false
	for _, name := range RemoteToolNames {
		if name == params.Name {
			known = true
			break
		}
	}
	if !known {
		return errorResponse(req.ID, codeInvalidParams, "Tool not found", params.Name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("tool %s panicked: %v", params.Name, rec)
			resp = resultResponse(req.ID, textResult(fmt.Sprintf("Error: internal failure: %v", rec), true))
		}
	}()

	s.logger.Info("tool call: %s", params.Name)
	start := time.Now()

	output, err := dispatchTool(ctx, s.pipelines, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool %s failed after %.1fs: %v", params.Name, time.Since(start).Seconds(), err)
		return resultResponse(req.ID, textResult(fmt.Sprintf("Error: %v", err), true))
	}

	s.logger.Info("tool %s completed in %.1fs", params.Name, time.Since(start).Seconds())
	return resultResponse(req.ID, textResult(output, false))
}

// handleHealth reports liveness once the process is serving.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": ServiceName,
		"tools":   RemoteToolNames,
	})
}

// push queues a response for delivery on the session's stream. A full buffer
// blocks until the stream drains; the wait ends when the session closes, so
// a completed run's response is only lost if its client is already gone.
func (s *Server) push(sess *session, resp *JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response: %v", err)
		return
	}
	select {
	case sess.events <- data:
	case <-sess.done:
		s.logger.Warn("session %s closed before response delivery", sess.id)
	}
}

// convertInputSchema converts an InputSchema to MCP wire format.
func convertInputSchema(schema *tools.InputSchema) map[string]any {
	result := map[string]any{"type": schema.Type}
	if len(schema.Properties) > 0 {
		props := make(map[string]any)
		for name := range schema.Properties {
			prop := schema.Properties[name]
			props[name] = convertProperty(&prop)
		}
		result["properties"] = props
	}
	if len(schema.Required) > 0 {
		result["required"] = schema.Required
	}
	return result
}

// convertProperty converts a Property to MCP wire format.
func convertProperty(prop *tools.Property) map[string]any {
	result := map[string]any{"type": prop.Type}
	if prop.Description != "" {
		result["description"] = prop.Description
	}
	if len(prop.Enum) > 0 {
		result["enum"] = prop.Enum
	}
	if prop.Items != nil {
		result["items"] = convertProperty(prop.Items)
	}
	if len(prop.Properties) > 0 {
		props := make(map[string]any)
		for name, p := range prop.Properties {
			if p != nil {
				props[name] = convertProperty(p)
			}
		}
		result["properties"] = props
	}
	return result
}
