// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package anthropic implements llm.Generator on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/go-a2a/a2a-agent/llm"
)

// Options configure the Anthropic generator.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
}

// Generator calls the Messages API once per Generate.
type Generator struct {
	client anthropic.Client
	opts   Options
}

var _ llm.Generator = (*Generator)(nil)

// New creates a Generator. Without an API key option the SDK reads
// ANTHROPIC_API_KEY from the environment.
func New(optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5HaikuLatest,
		Temperature: 0.7,
		MaxTokens:   1024,
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
		client: anthropic.NewClient(clientOpts...),
		opts:   opts,
	}
}

// Generate implements [llm.Generator]. The text blocks of the reply are concatenated.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userInput string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userInput)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return "", llm.ErrEmptyResponse
	}
	return sb.String(), nil
}
