// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server binds the A2A protocol to HTTP.
//
// A [Server] answers JSON-RPC calls on one POST endpoint, publishes the agent
// card on GET, and upgrades streaming sendMessage calls to Server-Sent Events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/pool"
	"github.com/go-a2a/a2a-agent/internal/telemetry"
	"github.com/go-a2a/a2a-agent/server/handler"
)

// maxRequestBytes bounds the size of a JSON-RPC request body.
const maxRequestBytes = 4 << 20

// Server implements the A2A protocol server.
type Server struct {
	card     *a2a.AgentCard
	requests handler.RequestHandler
	rpc      *handler.JSONRPCHandler
	mux      *http.ServeMux
	basePath string
	logger   *slog.Logger
	tracer   trace.Tracer
}

var _ http.Handler = (*Server)(nil)

// NewServer creates a new A2A server publishing card and serving requests.
func NewServer(card *a2a.AgentCard, requests handler.RequestHandler, opts ...Option) (*Server, error) {
	if card == nil {
		return nil, errors.New("agent card is required")
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	if requests == nil {
		return nil, errors.New("request handler is required")
	}

	s := &Server{
		card:     card,
		requests: requests,
		mux:      http.NewServeMux(),
		basePath: a2a.DefaultBasePath,
		logger:   slog.Default(),
		tracer:   otel.GetTracerProvider().Tracer(telemetry.InstrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !strings.HasPrefix(s.basePath, "/") {
		s.basePath = "/" + s.basePath
	}

	s.rpc = handler.NewJSONRPCHandler(requests,
		handler.WithLogger(s.logger),
		handler.WithTracer(s.tracer),
	)
	s.registerHandlers()

	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// AgentCard returns the published agent card.
func (s *Server) AgentCard() *a2a.AgentCard {
	return s.card
}

// BasePath returns the path of the JSON-RPC endpoint.
func (s *Server) BasePath() string {
	return s.basePath
}

// CancelTask cancels the task with taskID. Cancellation is not part of the
// RPC method set; it is offered to the embedding program only.
func (s *Server) CancelTask(ctx context.Context, taskID string) error {
	return s.requests.OnCancelTask(ctx, taskID)
}

// registerHandlers sets up all the HTTP routes for the A2A server.
func (s *Server) registerHandlers() {
	s.mux.HandleFunc("GET "+a2a.AgentCardWellKnownPath, s.handleAgentCard)
	s.mux.HandleFunc("GET "+a2a.LegacyAgentCardWellKnownPath, s.handleAgentCard)
	s.mux.HandleFunc("GET "+s.basePath, s.handleAgentCard)
	s.mux.HandleFunc("POST "+s.basePath, s.handleRPC)
}

// handleAgentCard serves the agent card.
func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, s.card)
}

// handleRPC handles all JSON-RPC requests.
//
// Protocol failures are reported as JSON-RPC errors with HTTP 200; only a body
// that cannot be read at all is a transport error.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxRequestBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req a2a.JSONRPCRequest
	if err := json.Unmarshal(buf.Bytes(), &req); err != nil {
		s.logger.DebugContext(ctx, "unparsable request", "error", err)
		telemetry.RecordRequest(ctx, "", a2a.ErrorCodeJSONParse)
		s.writeJSON(ctx, w, a2a.NewErrorResponse(nil, a2a.NewJSONRPCError(a2a.ErrorCodeJSONParse, "Parse error")))
		return
	}
	if err := req.Validate(); err != nil {
		s.logger.DebugContext(ctx, "invalid request", "error", err)
		telemetry.RecordRequest(ctx, req.Method, a2a.ErrorCodeInvalidRequest)
		s.writeJSON(ctx, w, a2a.NewErrorResponse(req.ID, a2a.NewJSONRPCError(a2a.ErrorCodeInvalidRequest, "Invalid request")))
		return
	}

	if s.card.Capabilities.Streaming && acceptsEventStream(r) && strings.EqualFold(req.Method, a2a.MethodSendMessage) {
		s.serveStream(w, r, &req)
		return
	}

	s.writeJSON(ctx, w, s.rpc.Handle(ctx, &req))
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, v); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode response", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", a2a.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.DebugContext(ctx, "failed to write response", "error", err)
	}
}

// acceptsEventStream reports whether the client asked for an SSE response.
func acceptsEventStream(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		for _, part := range strings.Split(v, ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err == nil && mediaType == a2a.ContentTypeEventStream {
				return true
			}
		}
	}
	return false
}
