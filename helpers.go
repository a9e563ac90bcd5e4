// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package a2a

// NewAgentMessage builds the AGENT-role reply for a task from parts.
func NewAgentMessage(contextID, taskID string, parts ...Part) Message {
	msg := NewMessage(RoleAgent, parts...)
	msg.ContextID = contextID
	msg.TaskID = taskID
	return msg
}

// FirstArtifactParts returns the parts of the task's first artifact, or nil
// when the task has none.
func FirstArtifactParts(t *Task) Parts {
	if t == nil || len(t.Artifacts) == 0 {
		return nil
	}
	return CloneParts(t.Artifacts[0].Parts)
}

// NewStatusMessage wraps detail in an AGENT message suitable for [TaskStatus.Message].
// It returns nil for an empty detail.
func NewStatusMessage(contextID, taskID, detail string) *Message {
	if detail == "" {
		return nil
	}
	msg := NewAgentMessage(contextID, taskID, NewTextPart(detail))
	return &msg
}
