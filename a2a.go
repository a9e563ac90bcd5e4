// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the core types of the Agent-to-Agent (A2A) protocol:
// messages and their parts, tasks and the task state machine, agent cards,
// and the JSON-RPC envelopes that carry them over HTTP.
package a2a

// ProtocolVersion is the A2A protocol version spoken by this module.
const ProtocolVersion = "0.3.0"
