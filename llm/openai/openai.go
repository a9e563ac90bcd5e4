// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package openai implements llm.Generator on the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/go-a2a/a2a-agent/llm"
)

// Options configure the OpenAI generator.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
	HTTPClient          *http.Client
}

// Generator calls the Chat Completions API once per Generate.
type Generator struct {
	client openai.Client
	opts   Options
}

var _ llm.Generator = (*Generator)(nil)

// New creates a Generator. Without an API key option the SDK reads
// OPENAI_API_KEY from the environment.
func New(optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Generator{
		client: openai.NewClient(clientOpts...),
		opts:   opts,
	}
}

// Generate implements [llm.Generator].
func (g *Generator) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userInput))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               openai.ChatModel(g.opts.Model),
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
