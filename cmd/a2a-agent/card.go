// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
)

func newCardCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Fetch and print a remote agent card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.card(cmd.Context(), cmd.OutOrStdout())
		},
	}
	addClientFlags(cmd)
	return cmd
}

func (a *app) card(ctx context.Context, out io.Writer) error {
	c, err := a.dial(ctx)
	if err != nil {
		return err
	}
	if err := json.MarshalWrite(out, c.AgentCard(), jsontext.WithIndent("  ")); err != nil {
		return fmt.Errorf("encoding card: %w", err)
	}
	_, err = fmt.Fprintln(out)
	return err
}
