// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"maps"

	"github.com/google/uuid"
)

// Artifact is an ordered sequence of parts produced by a task.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       Parts          `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewArtifact returns an [Artifact] with a fresh ID holding a copy of parts.
func NewArtifact(parts ...Part) Artifact {
	return Artifact{
		ArtifactID: uuid.NewString(),
		Parts:      CloneParts(parts),
	}
}

// Text returns the concatenated text of the artifact's text parts.
func (a Artifact) Text() string {
	return JoinText(a.Parts, "")
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	c := a
	c.Parts = CloneParts(a.Parts)
	c.Metadata = maps.Clone(a.Metadata)
	return c
}
