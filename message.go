// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"maps"
	"strings"

	"github.com/google/uuid"
)

// Role represents the role of a message sender in the A2A protocol.
type Role int

// Role constants for message senders.
const (
	RoleUnspecified Role = iota
	RoleUser
	RoleAgent
)

// rolePrefix is prepended to the role name on the wire.
const rolePrefix = "ROLE_"

// String returns the bare role name, e.g. "USER".
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAgent:
		return "AGENT"
	default:
		return "UNSPECIFIED"
	}
}

// ParseRole maps a wire role string to a [Role].
//
// The input is upper-cased and an optional "ROLE_" prefix is stripped, so
// "ROLE_USER", "user" and "User" all parse as [RoleUser].
func ParseRole(s string) (Role, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), rolePrefix)
	switch name {
	case "USER":
		return RoleUser, nil
	case "AGENT":
		return RoleAgent, nil
	default:
		return RoleUnspecified, &InvalidRoleError{Role: s}
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (r Role) MarshalText() ([]byte, error) {
	if r != RoleUser && r != RoleAgent {
		return nil, &InvalidRoleError{Role: r.String()}
	}
	return []byte(rolePrefix + r.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Message is one turn of conversation content.
//
// A Message is treated as immutable once built: the With* helpers return copies.
type Message struct {
	// MessageID uniquely identifies the message.
	MessageID string `json:"messageId"`
	// Role is the sender of the message.
	Role Role `json:"role"`
	// Parts is the ordered content of the message.
	Parts Parts `json:"parts"`
	// ContextID groups related tasks and turns.
	ContextID string `json:"contextId,omitempty"`
	// TaskID is the task this message belongs to, if any.
	TaskID string `json:"taskId,omitempty"`
	// Metadata holds free-form extension data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewMessage returns a [Message] with a fresh message ID.
func NewMessage(role Role, parts ...Part) Message {
	return Message{
		MessageID: uuid.NewString(),
		Role:      role,
		Parts:     CloneParts(parts),
	}
}

// NewTextMessage returns a [Message] holding a single [TextPart].
func NewTextMessage(role Role, text string) Message {
	return NewMessage(role, NewTextPart(text))
}

// Validate reports whether m can be sent or processed.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAgent {
		return &InvalidRoleError{Role: m.Role.String()}
	}
	if len(m.Parts) == 0 {
		return errors.New("message must contain at least one part")
	}
	for _, p := range m.Parts {
		if p == nil {
			return errors.New("message part cannot be nil")
		}
	}
	return nil
}

// Text returns the concatenated text of all text parts, in order.
func (m Message) Text() string {
	return JoinText(m.Parts, "")
}

// WithIDs returns a copy of m addressed to the given context and task.
func (m Message) WithIDs(contextID, taskID string) Message {
	c := m.Clone()
	c.ContextID = contextID
	c.TaskID = taskID
	return c
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	c := m
	c.Parts = CloneParts(m.Parts)
	c.Metadata = maps.Clone(m.Metadata)
	return c
}
