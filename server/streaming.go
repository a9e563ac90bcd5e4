// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/pool"
)

// errStreamClosed is returned by a write after the client went away.
var errStreamClosed = errors.New("stream is closed")

// sseWriter writes JSON-RPC responses as Server-Sent Events frames.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	closed  bool
}

// newSSEWriter prepares w for an event stream. It returns nil when w cannot
// be flushed incrementally.
func newSSEWriter(w http.ResponseWriter) *sseWriter {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}

	h := w.Header()
	h.Set("Content-Type", a2a.ContentTypeEventStream)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{
		w:       w,
		flusher: flusher,
	}
}

// Send writes resp as one "data:" frame and flushes it.
func (s *sseWriter) Send(resp *a2a.JSONRPCResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStreamClosed
	}

	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	buf.WriteString("data: ")
	if err := json.MarshalWrite(buf, resp); err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	buf.WriteString("\n\n")

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		s.closed = true
		return fmt.Errorf("writing event: %w", err)
	}
	s.flusher.Flush()

	return nil
}

// serveStream answers a sendMessage request as an event stream. When the
// response writer cannot stream, it answers with a single JSON body.
func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, req *a2a.JSONRPCRequest) {
	ctx := r.Context()

	stream := newSSEWriter(w)
	if stream == nil {
		s.logger.WarnContext(ctx, "response writer cannot stream, answering in one response")
		s.writeJSON(ctx, w, s.rpc.Handle(ctx, req))
		return
	}

	if err := s.rpc.HandleStream(ctx, req, stream.Send); err != nil {
		s.logger.DebugContext(ctx, "event stream ended early", "error", err)
	}
}
