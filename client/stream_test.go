// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStreamConn_ReadFrame(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"event: message",
		`data: {"jsonrpc":"2.0","id":"1",`,
		`data: "result":{"kind":"status-update"}}`,
		"",
		"",
		`data:{"jsonrpc":"2.0","id":"1","error":{"code":-32603,"message":"boom"}}`,
		"",
		`data: {"jsonrpc":"2.0","id":"1","result":{}}`,
	}, "\n")

	conn := NewStreamConn(io.NopCloser(strings.NewReader(body)))
	t.Cleanup(func() { conn.Close() })

	var got []string
	for {
		frame, err := conn.ReadFrame(t.Context())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		switch {
		case frame.Error != nil:
			got = append(got, "error:"+frame.Error.Message)
		default:
			got = append(got, "result:"+string(frame.Result))
		}
	}

	want := []string{
		`result:{"kind":"status-update"}`,
		"error:boom",
		"result:{}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamConn_SingleFrame(t *testing.T) {
	body := "{\"jsonrpc\":\"2.0\",\n\"id\":7,\"result\":{\"message\":null}}\n"
	conn := newSingleFrameConn(io.NopCloser(strings.NewReader(body)))

	frame, err := conn.ReadFrame(t.Context())
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(frame.ID) != "7" {
		t.Errorf("id = %s, want 7", frame.ID)
	}
	if _, err := conn.ReadFrame(t.Context()); !errors.Is(err, io.EOF) {
		t.Errorf("second ReadFrame error = %v, want io.EOF", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
