// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
)

// AgentCapabilities lists the optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// AgentSkill describes a unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// Validate ensures the AgentSkill is valid.
func (s AgentSkill) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("agent skill ID cannot be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("agent skill name cannot be empty")
	}
	return nil
}

// AgentInterface declares a URL and the transport binding served there.
type AgentInterface struct {
	URL       string `json:"url"`
	Transport string `json:"transport"`
}

// AgentCard is the capability descriptor an agent publishes for discovery.
type AgentCard struct {
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	URL                  string            `json:"url"`
	Version              string            `json:"version"`
	ProtocolVersion      string            `json:"protocolVersion"`
	Capabilities         AgentCapabilities `json:"capabilities"`
	DefaultInputModes    []string          `json:"defaultInputModes"`
	DefaultOutputModes   []string          `json:"defaultOutputModes"`
	Skills               []AgentSkill      `json:"skills"`
	PreferredTransport   string            `json:"preferredTransport,omitempty"`
	AdditionalInterfaces []AgentInterface  `json:"additionalInterfaces,omitempty"`
}

// Validate ensures the AgentCard carries the fields a client relies on.
func (c *AgentCard) Validate() error {
	if c == nil {
		return fmt.Errorf("agent card is nil")
	}
	if c.Name == "" {
		return fmt.Errorf("agent card missing required field: name")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card missing required field: version")
	}
	for i, skill := range c.Skills {
		if err := skill.Validate(); err != nil {
			return fmt.Errorf("skill #%d: %w", i+1, err)
		}
	}
	return nil
}

// FindSkill finds a skill by ID.
func (c *AgentCard) FindSkill(id string) (AgentSkill, bool) {
	for _, skill := range c.Skills {
		if skill.ID == id {
			return skill, true
		}
	}
	return AgentSkill{}, false
}
