// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements a remote A2A agent client over JSON-RPC.
//
// [NewClient] discovers the agent card once and fails fast when it cannot.
// [Client.SendMessage] waits for one terminal response, and
// [Client.StreamMessage] yields events as the agent produces them.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/sink"
	"github.com/go-a2a/a2a-agent/internal/telemetry"
)

// Client talks to one remote agent.
type Client struct {
	card      *a2a.AgentCard
	transport *Transport

	httpClient   *http.Client
	interceptors []Interceptor
	handlers     []EventHandler
	timeout      time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewClient discovers the agent at agentURL and returns a client for it.
//
// The card is fetched from the origin's well-known path. Calls go to
// agentURL when it has a path, otherwise to the URL the card advertises,
// otherwise to the default base path. Any discovery failure is returned as
// [*DiscoveryError].
func NewClient(ctx context.Context, agentURL string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		tracer:     otel.GetTracerProvider().Tracer(telemetry.InstrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	u, err := url.Parse(agentURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = errors.New("agent URL must be absolute")
		}
		return nil, &DiscoveryError{URL: agentURL, Err: err}
	}
	origin := u.Scheme + "://" + u.Host

	card, err := NewCardResolver(origin, c.httpClient, c.interceptors...).GetAgentCard(ctx, "")
	if err == nil {
		err = card.Validate()
	}
	if err != nil {
		return nil, &DiscoveryError{URL: origin + a2a.AgentCardWellKnownPath, Err: err}
	}
	c.card = card

	endpoint := origin + a2a.DefaultBasePath
	switch {
	case u.Path != "" && u.Path != "/":
		endpoint = u.String()
	case card.URL != "":
		endpoint = card.URL
	}
	c.transport = NewTransport(endpoint, c.httpClient, c.interceptors...)

	c.logger.DebugContext(ctx, "discovered agent", "name", card.Name, "version", card.Version,
		"endpoint", endpoint, "streaming", card.Capabilities.Streaming)
	return c, nil
}

// AgentCard returns the card discovered at construction.
func (c *Client) AgentCard() *a2a.AgentCard {
	return c.card
}

// Endpoint returns the JSON-RPC endpoint the client posts to.
func (c *Client) Endpoint() string {
	return c.transport.URL()
}

// SendMessage sends msg and waits for the agent's terminal response.
//
// Exactly one of these is returned: the reply, a [*TimeoutError] once the
// client timeout elapses, or the transport or [*RPCError] failure. A timeout
// only stops waiting; the remote task keeps running.
func (c *Client) SendMessage(ctx context.Context, msg a2a.Message) (_ *a2a.Message, err error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "a2a.client."+a2a.MethodSendMessage, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := newGate()
	go c.deliver(callCtx, msg, g)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-g.done:
		if g.msg != nil {
			span.SetAttributes(attribute.String("a2a.task_id", g.msg.TaskID))
		}
		return g.msg, g.err
	case <-timer.C:
		c.logger.WarnContext(ctx, "agent did not answer in time", "timeout", c.timeout)
		return nil, &TimeoutError{Timeout: c.timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// deliver performs the blocking call and resolves g from its outcome.
func (c *Client) deliver(ctx context.Context, msg a2a.Message, g *gate) {
	resp, err := c.transport.Call(ctx, a2a.MethodSendMessage, &a2a.SendMessageParams{Message: &msg})
	if err != nil {
		g.resolve(nil, err)
		return
	}

	result, err := decodeResult(resp.Result)
	if err != nil {
		g.resolve(nil, err)
		return
	}
	var folder taskFolder
	ev, err := folder.fold(result)
	if err != nil {
		g.resolve(nil, err)
		return
	}

	c.dispatch(ctx, ev)
	if ev.Terminal() {
		g.resolve(reply(ev), nil)
		return
	}
	c.logger.DebugContext(ctx, "non-terminal response, waiting", "event", fmt.Sprintf("%T", ev))
}

func (c *Client) dispatch(ctx context.Context, ev ClientEvent) {
	for _, h := range c.handlers {
		h(ctx, ev)
	}
}

// StreamMessage sends msg and yields events as the agent produces them.
//
// The sequence ends after a terminal [*TaskEvent] or any [*MessageEvent]. A
// transport failure, an error frame or a stream that closes early ends it
// with an error. When no event arrives within the client timeout, the sequence
// ends with a [*TimeoutError]; the remote task keeps running. When the agent
// does not advertise streaming, StreamMessage performs a blocking send and
// yields its reply as a single [*MessageEvent].
func (c *Client) StreamMessage(ctx context.Context, msg a2a.Message) iter.Seq2[ClientEvent, error] {
	return func(yield func(ClientEvent, error) bool) {
		if err := msg.Validate(); err != nil {
			yield(nil, fmt.Errorf("invalid message: %w", err))
			return
		}

		if !c.card.Capabilities.Streaming {
			c.logger.DebugContext(ctx, "agent does not stream, falling back to blocking send")
			m, err := c.SendMessage(ctx, msg)
			if err != nil {
				yield(nil, err)
				return
			}
			yield(&MessageEvent{Message: m}, nil)
			return
		}

		ctx, span := c.tracer.Start(ctx, "a2a.client."+a2a.MethodSendMessage,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.Bool("a2a.stream", true)))
		defer span.End()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		events := sink.New[ClientEvent]()
		go c.produce(ctx, msg, events)

		for {
			ev, err := c.next(ctx, events)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield(nil, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// next pops the next event, giving up after the client timeout of silence.
func (c *Client) next(ctx context.Context, events *sink.Unbounded[ClientEvent]) (ClientEvent, error) {
	idleCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ev, err := events.Pop(idleCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		c.logger.WarnContext(ctx, "agent stream went silent", "timeout", c.timeout)
		return nil, &TimeoutError{Timeout: c.timeout}
	}
	return ev, err
}

// produce reads the event stream into events and closes it at the end.
func (c *Client) produce(ctx context.Context, msg a2a.Message, events *sink.Unbounded[ClientEvent]) {
	conn, err := c.transport.Stream(ctx, a2a.MethodSendMessage, &a2a.SendMessageParams{Message: &msg})
	if err != nil {
		events.Close(err)
		return
	}
	defer conn.Close()

	var folder taskFolder
	for {
		frame, err := conn.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			events.Close(ErrStreamEnded)
			return
		}
		if err != nil {
			events.Close(err)
			return
		}
		if frame.Error != nil {
			events.Close(NewRPCError(frame.Error.Code, frame.Error.Message, frame.Error.Data))
			return
		}

		result, err := decodeResult(frame.Result)
		if err != nil {
			events.Close(err)
			return
		}
		ev, err := folder.fold(result)
		if err != nil {
			events.Close(err)
			return
		}

		c.dispatch(ctx, ev)
		if err := events.Push(ev); err != nil {
			return
		}
		if ev.Terminal() {
			events.Close(nil)
			return
		}
	}
}

// GetTask fetches the task with taskID.
func (c *Client) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client."+a2a.MethodGetTask,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	resp, err := c.transport.Call(ctx, a2a.MethodGetTask, &a2a.GetTaskParams{TaskID: taskID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var result a2a.GetTaskResult
	if err := resp.DecodeResult(&result); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	if result.Task == nil {
		return nil, errors.New("getTask result carries no task")
	}
	return result.Task, nil
}

// SubmitTask creates a task on the agent without running it. An empty
// contextID lets the agent pick one.
func (c *Client) SubmitTask(ctx context.Context, contextID string) (*a2a.SubmitTaskResult, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client."+a2a.MethodSubmitTask, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, err := c.transport.Call(ctx, a2a.MethodSubmitTask, &a2a.SubmitTaskParams{ContextID: contextID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var result a2a.SubmitTaskResult
	if err := resp.DecodeResult(&result); err != nil {
		return nil, fmt.Errorf("decoding submitTask result: %w", err)
	}
	return &result, nil
}

// gate is a single-notification latch: the first resolve wins.
type gate struct {
	once sync.Once
	done chan struct{}
	msg  *a2a.Message
	err  error
}

func newGate() *gate {
	return &gate{done: make(chan struct{})}
}

func (g *gate) resolve(msg *a2a.Message, err error) {
	g.once.Do(func() {
		g.msg, g.err = msg, err
		close(g.done)
	})
}
