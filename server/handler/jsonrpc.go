// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/telemetry"
	"github.com/go-a2a/a2a-agent/server/event"
)

// methodFunc serves one JSON-RPC method and returns its result.
type methodFunc func(ctx context.Context, params jsontext.Value) (any, error)

// JSONRPCHandler provides JSON-RPC protocol adaptation for a [RequestHandler].
// It matches the closed method set case-insensitively, decodes params and
// formats results and errors as JSON-RPC responses.
type JSONRPCHandler struct {
	handler RequestHandler
	methods map[string]methodFunc
	logger  *slog.Logger
	tracer  trace.Tracer
}

// JSONRPCHandlerOption defines a function type for configuring JSONRPCHandler.
type JSONRPCHandlerOption func(*JSONRPCHandler)

// WithLogger sets the [*slog.Logger] for the [JSONRPCHandler].
func WithLogger(logger *slog.Logger) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [JSONRPCHandler].
func WithTracer(tracer trace.Tracer) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.tracer = tracer
	}
}

// NewJSONRPCHandler creates a new JSONRPCHandler with the provided request handler.
func NewJSONRPCHandler(handler RequestHandler, opts ...JSONRPCHandlerOption) *JSONRPCHandler {
	if handler == nil {
		panic("request handler cannot be nil")
	}

	h := &JSONRPCHandler{
		handler: handler,
		logger:  slog.Default(),
		tracer:  otel.GetTracerProvider().Tracer(telemetry.InstrumentationName),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registerMethods()

	return h
}

// registerMethods registers all JSON-RPC method handlers.
func (h *JSONRPCHandler) registerMethods() {
	h.methods = map[string]methodFunc{
		a2a.MethodSubmitTask:  h.handleSubmitTask,
		a2a.MethodSendMessage: h.handleSendMessage,
		a2a.MethodGetTask:     h.handleGetTask,
	}
}

// canonicalMethod returns the registered spelling of method, ignoring case.
func (h *JSONRPCHandler) canonicalMethod(method string) (string, bool) {
	for name := range h.methods {
		if strings.EqualFold(name, method) {
			return name, true
		}
	}
	return "", false
}

// Handle dispatches request and returns its response. It never returns nil:
// every failure, including a panic, becomes a JSON-RPC error response.
func (h *JSONRPCHandler) Handle(ctx context.Context, request *a2a.JSONRPCRequest) (resp *a2a.JSONRPCResponse) {
	method, ok := h.canonicalMethod(request.Method)
	if !ok {
		telemetry.RecordRequest(ctx, request.Method, a2a.ErrorCodeMethodNotFound)
		return a2a.NewErrorResponse(request.ID, NewMethodNotFoundError(request.Method))
	}

	ctx, span := h.tracer.Start(ctx, "a2a.handler."+method, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "panic while handling request", "method", method, "panic", r, "stack", string(debug.Stack()))
			resp = a2a.NewErrorResponse(request.ID, NewInternalError(r))
		}
		code := 0
		if resp.Error != nil {
			code = resp.Error.Code
			span.SetStatus(codes.Error, resp.Error.Message)
		}
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
		telemetry.RecordRequest(ctx, method, code)
	}()

	result, err := h.methods[method](ctx, request.Params)
	if err != nil {
		h.logger.WarnContext(ctx, "request failed", "method", method, "error", err)
		span.RecordError(err)
		return a2a.NewErrorResponse(request.ID, toJSONRPCError(method, err))
	}
	return h.success(request.ID, result)
}

// HandleStream serves a streaming sendMessage, passing each JSON-RPC response
// frame to emit in order: one artifact-update result per artifact, then a
// final status-update result. Other methods produce a single frame.
//
// HandleStream returns the first error from emit. The execution keeps running
// when the consumer goes away.
func (h *JSONRPCHandler) HandleStream(ctx context.Context, request *a2a.JSONRPCRequest, emit func(*a2a.JSONRPCResponse) error) (err error) {
	method, ok := h.canonicalMethod(request.Method)
	if !ok || method != a2a.MethodSendMessage {
		return emit(h.Handle(ctx, request))
	}

	ctx, span := h.tracer.Start(ctx, "a2a.handler."+method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.Bool("a2a.stream", true)))
	defer span.End()

	code := 0
	fail := func(rpcErr *a2a.JSONRPCError) error {
		code = rpcErr.Code
		span.SetStatus(codes.Error, rpcErr.Message)
		return emit(a2a.NewErrorResponse(request.ID, rpcErr))
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "panic while streaming", "method", method, "panic", r, "stack", string(debug.Stack()))
			err = fail(NewInternalError(r))
		}
		telemetry.RecordRequest(ctx, method, code)
	}()

	var params a2a.SendMessageParams
	if err := decodeParams(request.Params, &params); err != nil {
		return fail(toJSONRPCError(method, err))
	}
	seq, err := h.handler.OnSendMessageStream(ctx, &params)
	if err != nil {
		return fail(toJSONRPCError(method, err))
	}

	for ev, err := range seq {
		if err != nil {
			h.logger.WarnContext(ctx, "stream failed", "method", method, "error", err)
			return fail(toJSONRPCError(method, err))
		}
		if err := emit(h.success(request.ID, wireEvent(ev))); err != nil {
			h.logger.DebugContext(ctx, "stream consumer went away", "error", err)
			return err
		}
	}
	return nil
}

func (h *JSONRPCHandler) success(id jsontext.Value, result any) *a2a.JSONRPCResponse {
	resp, err := a2a.NewSuccessResponse(id, result)
	if err != nil {
		return a2a.NewErrorResponse(id, NewInternalError(err))
	}
	return resp
}

func (h *JSONRPCHandler) handleSubmitTask(ctx context.Context, raw jsontext.Value) (any, error) {
	var params a2a.SubmitTaskParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	return h.handler.OnSubmitTask(ctx, &params)
}

func (h *JSONRPCHandler) handleSendMessage(ctx context.Context, raw jsontext.Value) (any, error) {
	var params a2a.SendMessageParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	return h.handler.OnSendMessage(ctx, &params)
}

func (h *JSONRPCHandler) handleGetTask(ctx context.Context, raw jsontext.Value) (any, error) {
	var params a2a.GetTaskParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, &InvalidParamsError{Detail: "malformed params", Err: err}
	}
	return h.handler.OnGetTask(ctx, &params)
}

// decodeParams unmarshals raw into v. Absent or null params leave v zero.
func decodeParams(raw jsontext.Value, v any) error {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	return nil
}

// wireEvent converts ev to its streamed result form.
func wireEvent(ev event.Event) any {
	switch e := ev.(type) {
	case *event.TaskStatusUpdateEvent:
		return e.Wire()
	case *event.TaskArtifactUpdateEvent:
		return e.Wire()
	default:
		panic(fmt.Sprintf("unknown event type %T", ev))
	}
}
