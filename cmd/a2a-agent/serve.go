// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
	"github.com/go-a2a/a2a-agent/server/handler"
	"github.com/go-a2a/a2a-agent/server/task"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo agent",
		Long: `Serve the demo agent over JSON-RPC.

Input mentioning "uppercase", "stream" or "analyze" is routed to the matching
skill; anything else is echoed. The analyze skill uses the configured LLM
provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("base-path", a2a.DefaultBasePath, "JSON-RPC endpoint path")
	flags.Duration("timeout", 30*time.Second, "how long a blocking sendMessage waits for its task")
	flags.Bool("streaming", true, "advertise and serve Server-Sent Events streams")
	flags.String("provider", "echo", "LLM provider for the analyze skill: echo, openai or anthropic")
	flags.String("model", "", "LLM model name (provider default when empty)")
	bind(flags, "addr", "server.addr")
	bind(flags, "base-path", "server.base_path")
	bind(flags, "timeout", "server.timeout")
	bind(flags, "streaming", "agent.streaming")
	bind(flags, "provider", "llm.provider")
	bind(flags, "model", "llm.model")

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	provider, metrics, err := newMeterProvider()
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.WarnContext(ctx, "meter provider shutdown failed", "error", err)
		}
	}()

	l, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}

	basePath := cfg.Server.BasePath
	if basePath == "" {
		basePath = a2a.DefaultBasePath
	}
	url := cfg.Agent.URL
	if url == "" {
		url = localURL(l.Addr(), basePath)
	}

	exec := agent_execution.NewExecutor(newLifecycle(cfg.LLM), task.NewInMemoryStore(),
		agent_execution.WithLogger(a.logger))
	requests := handler.NewDefaultRequestHandler(exec,
		handler.WithTimeout(cfg.Server.Timeout),
		handler.WithRequestHandlerLogger(a.logger))
	srv, err := server.NewServer(demoCard(cfg.Agent, url), requests,
		server.WithBasePath(basePath),
		server.WithLogger(a.logger))
	if err != nil {
		l.Close()
		return err
	}

	mux := http.NewServeMux()
	if cfg.Server.MetricsPath != "" {
		mux.Handle("GET "+cfg.Server.MetricsPath, metrics)
	}
	mux.Handle("/", srv)

	var h http.Handler = mux
	if cfg.Server.H2C {
		h = h2c.NewHandler(mux, &http2.Server{})
	}
	httpServer := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(l)
	}()
	a.logger.InfoContext(ctx, "a2a agent listening",
		"addr", l.Addr().String(),
		"endpoint", url,
		"card", a2a.AgentCardWellKnownPath,
		"provider", cfg.LLM.Provider,
		"streaming", cfg.Agent.Streaming)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.InfoContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// localURL turns a listener address into a URL a local client can dial.
func localURL(addr net.Addr, basePath string) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + basePath
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + basePath
}
