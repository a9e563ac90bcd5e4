// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm defines the text generation capability used by chat agents and
// a deterministic implementation of it.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a model answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Generator produces a reply to userInput under systemPrompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userInput string) (string, error)
}

// GeneratorFunc adapts a function to the [Generator] interface.
type GeneratorFunc func(ctx context.Context, systemPrompt, userInput string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	return f(ctx, systemPrompt, userInput)
}

// EchoSystemPrompt describes the rules [Echo] follows, for use with a real model.
const EchoSystemPrompt = `You are an echo agent.
- ECHO (default): respond with "Echo: " followed by the user's message.
- UPPERCASE: if the message asks for uppercase, return only the uppercased message.`

// Echo is a Generator that needs no model. Input mentioning "uppercase" is
// upper-cased; anything else is returned prefixed with "Echo: ".
type Echo struct{}

var _ Generator = Echo{}

// Generate implements [Generator].
func (Echo) Generate(ctx context.Context, _, userInput string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(userInput), "uppercase") {
		return strings.ToUpper(userInput), nil
	}
	return "Echo: " + userInput, nil
}
