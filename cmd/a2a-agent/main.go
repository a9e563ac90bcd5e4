// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command a2a-agent serves a demo A2A agent and talks to remote ones.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
)

func init() {
	// Enable the use of the random pool for UUID generation.
	uuid.EnableRandPool()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
