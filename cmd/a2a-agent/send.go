// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/client"
)

// addClientFlags registers the flags shared by commands that dial an agent.
func addClientFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("url", "http://localhost:8080", "agent URL (origin or JSON-RPC endpoint)")
	flags.Duration("timeout", 30*time.Second, "how long to wait for a terminal response")
	flags.String("token", "", "bearer token sent with every request")
	bind(flags, "url", "client.url")
	bind(flags, "timeout", "client.timeout")
	bind(flags, "token", "client.token")
}

func (a *app) dial(ctx context.Context) (*client.Client, error) {
	opts := []client.Option{
		client.WithTimeout(a.cfg.Client.Timeout),
		client.WithLogger(a.logger),
		client.WithInterceptors(
			client.UserAgentInterceptor("a2a-agent/"+version),
			client.RetryInterceptor(client.DefaultRetryPolicy),
			client.LoggingInterceptor(a.logger),
		),
	}
	if a.cfg.Client.Token != "" {
		opts = append(opts, client.WithBearerToken(a.cfg.Client.Token))
	}
	return client.NewClient(ctx, a.cfg.Client.URL, opts...)
}

type sendOptions struct {
	stream    bool
	contextID string
	taskID    string
}

func newSendCommand(a *app) *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send [flags] <message>...",
		Short: "Send a text message to an agent",
		Example: `  a2a-agent send "Hello, agent"
  a2a-agent send --stream "stream these words back"
  a2a-agent send --url https://agent.example.com "analyze this"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}
	addClientFlags(cmd)
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "print events as the agent produces them")
	cmd.Flags().StringVar(&opts.contextID, "context-id", "", "conversation context to continue")
	cmd.Flags().StringVar(&opts.taskID, "task-id", "", "existing task to address")

	return cmd
}

func (a *app) send(ctx context.Context, out io.Writer, text string, opts sendOptions) error {
	c, err := a.dial(ctx)
	if err != nil {
		return err
	}
	msg := a2a.NewTextMessage(a2a.RoleUser, text).WithIDs(opts.contextID, opts.taskID)

	if !opts.stream {
		reply, err := c.SendMessage(ctx, msg)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Text())
		return nil
	}

	for ev, err := range c.StreamMessage(ctx, msg) {
		if err != nil {
			return err
		}
		switch e := ev.(type) {
		case *client.MessageEvent:
			fmt.Fprintln(out, e.Message.Text())
		case *client.TaskEvent:
			if e.Artifact != nil {
				fmt.Fprintln(out, a2a.JoinText(e.Parts(), ""))
				continue
			}
			status := e.Task.Status
			if detail := status.Detail(); detail != "" {
				fmt.Fprintf(out, "[%s] %s\n", status.State, detail)
			} else {
				fmt.Fprintf(out, "[%s]\n", status.State)
			}
			if status.State == a2a.TaskStateFailed || status.State == a2a.TaskStateCanceled {
				return fmt.Errorf("task %s ended with state %s", e.Task.ID, status.State)
			}
		}
	}
	return nil
}
