// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/config"
	"github.com/go-a2a/a2a-agent/llm"
	anthropicllm "github.com/go-a2a/a2a-agent/llm/anthropic"
	openaillm "github.com/go-a2a/a2a-agent/llm/openai"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
)

// demoCard describes the agent built by newLifecycle, reachable at url.
func demoCard(cfg config.AgentConfig, url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:            cfg.Name,
		Description:     cfg.Description,
		URL:             url,
		Version:         cfg.Version,
		ProtocolVersion: a2a.ProtocolVersion,
		Capabilities: a2a.AgentCapabilities{
			Streaming: cfg.Streaming,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "echo",
				Name:        "Echo",
				Description: `Replies with "Echo: " followed by the message`,
				Tags:        []string{"demo"},
				Examples:    []string{"Hello there"},
			},
			{
				ID:          "uppercase",
				Name:        "Uppercase",
				Description: "Returns the message upper-cased",
				Tags:        []string{"demo", "transform"},
				Examples:    []string{"uppercase this sentence"},
			},
			{
				ID:          "stream",
				Name:        "Word stream",
				Description: "Streams the message back one word per artifact",
				Tags:        []string{"demo", "streaming"},
				Examples:    []string{"stream these words back"},
			},
			{
				ID:          "ai-analyze",
				Name:        "Analyze",
				Description: "Asks the configured model for a brief analysis of the message",
				Tags:        []string{"llm"},
				Examples:    []string{"analyze the tone of this review"},
			},
		},
		PreferredTransport: a2a.TransportJSONRPC,
		AdditionalInterfaces: []a2a.AgentInterface{
			{URL: url, Transport: a2a.TransportJSONRPC},
		},
	}
}

// newLifecycle routes each input to a skill by keyword.
func newLifecycle(cfg config.LLMConfig) agent_execution.Lifecycle {
	return &agent_execution.SkillRouter{
		Routes: []agent_execution.Route{
			{Keyword: "uppercase", Lifecycle: agent_execution.UppercaseLifecycle{}},
			{Keyword: "stream", Lifecycle: agent_execution.WordStreamLifecycle{}},
			{Keyword: "analyze", Lifecycle: &agent_execution.ChatLifecycle{
				Generator:    newGenerator(cfg),
				SystemPrompt: cfg.SystemPrompt,
			}},
		},
		Default: agent_execution.EchoLifecycle{},
	}
}

func newGenerator(cfg config.LLMConfig) llm.Generator {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaillm.New(func(o *openaillm.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	case config.ProviderAnthropic:
		return anthropicllm.New(func(o *anthropicllm.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	default:
		return llm.Echo{}
	}
}
