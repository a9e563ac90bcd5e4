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

// A2A protocol path and transport constants.
const (
	// AgentCardWellKnownPath is the standard path for retrieving an agent's public AgentCard.
	//
	// Example usage: https://agent.example.com/.well-known/agent-card.json
	AgentCardWellKnownPath = "/.well-known/agent-card.json"

	// LegacyAgentCardWellKnownPath is the pre 0.3 location of the agent card.
	// Servers still answer it so older resolvers keep working.
	LegacyAgentCardWellKnownPath = "/.well-known/agent.json"

	// DefaultBasePath is the default URL path of the JSON-RPC endpoint.
	// The same path also answers GET with the agent card.
	DefaultBasePath = "/a2a"

	// TransportJSONRPC names the JSON-RPC over HTTP transport binding in an [AgentCard].
	TransportJSONRPC = "JSONRPC"

	// ContentTypeJSON is the media type of JSON-RPC requests and responses.
	ContentTypeJSON = "application/json"

	// ContentTypeEventStream is the media type of streamed responses.
	ContentTypeEventStream = "text/event-stream"
)
