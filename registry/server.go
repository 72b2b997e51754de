package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

// Resolver resolves a task description to a routable descriptor.
type Resolver interface {
	Resolve(ctx context.Context, taskDescription string) (core.AgentDescriptor, error)
}

// FindAgentRequest is the body of POST /find_agent.
type FindAgentRequest struct {
	Query string `json:"query"`
}

// ErrorResponse is the discovery failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server exposes a Registry over HTTP.
type Server struct {
	*core.LoggerAdapter
	registry *Registry
	mux      *http.ServeMux
}

// NewServer builds the discovery HTTP handler.
func NewServer(r *Registry, logger logging.Logger) *Server {
	s := &Server{
		LoggerAdapter: core.NewLoggerAdapter(logger),
		registry:      r,
		mux:           http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /find_agent", s.handleFindAgent)
	s.mux.HandleFunc("GET /agents", s.handleAgents)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "agents": len(r.Descriptors())})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleFindAgent(w http.ResponseWriter, r *http.Request) {
	var req FindAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	s.LogInfo("Finding agent", "query", req.Query)
	d, err := s.registry.Resolve(r.Context(), req.Query)
	if err != nil {
		// The discovery contract reports a miss as a body, not a status.
		msg := "No matching agent found"
		if !errors.Is(err, core.ErrNoAgentFound) {
			msg = err.Error()
		}
		writeJSON(w, http.StatusOK, ErrorResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Descriptors())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
