// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"errors"
	"strings"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/llm"
	"github.com/go-a2a/a2a-agent/server/task"
)

// ChatLifecycle answers with one call to a text generator.
type ChatLifecycle struct {
	Generator    llm.Generator
	SystemPrompt string
}

var _ Lifecycle = (*ChatLifecycle)(nil)

// Execute implements [Lifecycle].
func (c *ChatLifecycle) Execute(ctx context.Context, userInput string, _ *task.Updater) ([]a2a.Part, error) {
	if c.Generator == nil {
		return nil, errors.New("chat lifecycle has no generator")
	}
	out, err := c.Generator.Generate(ctx, c.SystemPrompt, userInput)
	if err != nil {
		return nil, err
	}
	return []a2a.Part{a2a.NewTextPart(out)}, nil
}

// EchoLifecycle answers "Echo: " followed by the input.
type EchoLifecycle struct{}

var _ Lifecycle = EchoLifecycle{}

// Execute implements [Lifecycle].
func (EchoLifecycle) Execute(_ context.Context, userInput string, _ *task.Updater) ([]a2a.Part, error) {
	return []a2a.Part{a2a.NewTextPart("Echo: " + userInput)}, nil
}

// UppercaseLifecycle answers with the input upper-cased.
type UppercaseLifecycle struct{}

var _ Lifecycle = UppercaseLifecycle{}

// Execute implements [Lifecycle].
func (UppercaseLifecycle) Execute(_ context.Context, userInput string, _ *task.Updater) ([]a2a.Part, error) {
	return []a2a.Part{a2a.NewTextPart(strings.ToUpper(userInput))}, nil
}

// WordStreamLifecycle attaches one artifact per word of the input, so that
// streaming clients observe the answer incrementally. It returns no parts of
// its own.
type WordStreamLifecycle struct{}

var _ Lifecycle = WordStreamLifecycle{}

// Execute implements [Lifecycle].
func (WordStreamLifecycle) Execute(ctx context.Context, userInput string, updater *task.Updater) ([]a2a.Part, error) {
	for _, word := range strings.Fields(userInput) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := updater.AddArtifact(ctx, a2a.NewTextPart(word)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// SkillRouter picks a lifecycle by keyword. The first route whose keyword
// occurs in the lower-cased input handles the request; Default handles the rest.
type SkillRouter struct {
	Routes  []Route
	Default Lifecycle
}

// Route binds a keyword to a lifecycle.
type Route struct {
	Keyword   string
	Lifecycle Lifecycle
}

var _ Lifecycle = (*SkillRouter)(nil)

// Execute implements [Lifecycle].
func (r *SkillRouter) Execute(ctx context.Context, userInput string, updater *task.Updater) ([]a2a.Part, error) {
	return r.pick(userInput).Execute(ctx, userInput, updater)
}

func (r *SkillRouter) pick(userInput string) Lifecycle {
	lower := strings.ToLower(userInput)
	for _, route := range r.Routes {
		if route.Keyword != "" && strings.Contains(lower, strings.ToLower(route.Keyword)) {
			return route.Lifecycle
		}
	}
	if r.Default == nil {
		return EchoLifecycle{}
	}
	return r.Default
}
