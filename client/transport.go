// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/go-a2a/a2a-agent"
)

// maxErrorBody bounds how much of a non-200 response body is quoted in errors.
const maxErrorBody = 4 << 10

// Transport handles JSON-RPC communication with the A2A server.
type Transport struct {
	url     string
	invoker Invoker
}

// NewTransport creates a new Transport posting to url with httpClient.
func NewTransport(url string, httpClient *http.Client, interceptors ...Interceptor) *Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Transport{
		url: url,
		invoker: chainInterceptors(interceptors, func(_ context.Context, req *http.Request) (*http.Response, error) {
			return httpClient.Do(req)
		}),
	}
}

// URL returns the JSON-RPC endpoint.
func (t *Transport) URL() string {
	return t.url
}

// Call sends a JSON-RPC request and returns the decoded response envelope.
// A JSON-RPC error in the envelope is returned as [*RPCError].
func (t *Transport) Call(ctx context.Context, method string, params any) (*a2a.JSONRPCResponse, error) {
	httpResp, err := t.post(ctx, method, params, a2a.ContentTypeJSON)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	resp, err := decodeEnvelope(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, NewRPCError(resp.Error.Code, resp.Error.Message, resp.Error.Data)
	}
	return resp, nil
}

// Stream sends a JSON-RPC request asking for an event stream. An agent that
// answers with a plain JSON body yields a single-frame stream.
func (t *Transport) Stream(ctx context.Context, method string, params any) (*StreamConn, error) {
	httpResp, err := t.post(ctx, method, params, a2a.ContentTypeEventStream)
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(httpResp.Header.Get("Content-Type"))
	if mediaType != a2a.ContentTypeEventStream {
		return newSingleFrameConn(httpResp.Body), nil
	}
	return NewStreamConn(httpResp.Body), nil
}

func (t *Transport) post(ctx context.Context, method string, params any, accept string) (*http.Response, error) {
	req, err := a2a.NewJSONRPCRequest(uuid.NewString(), method, params)
	if err != nil {
		return nil, err
	}

	// Encode the request
	data, err := sonic.ConfigDefault.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	ctx = withMethod(ctx, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", a2a.ContentTypeJSON)
	httpReq.Header.Set("Accept", accept)

	httpResp, err := t.invoker(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending HTTP request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, fmt.Errorf("server returned non-OK status: %s, body: %s", httpResp.Status, bytes.TrimSpace(body))
	}
	return httpResp, nil
}

func decodeEnvelope(r io.Reader) (*a2a.JSONRPCResponse, error) {
	var resp a2a.JSONRPCResponse
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

func decodeFrame(data []byte) (*a2a.JSONRPCResponse, error) {
	var resp a2a.JSONRPCResponse
	if err := sonic.ConfigDefault.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return &resp, nil
}
