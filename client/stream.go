// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-a2a/a2a-agent"
)

// maxFrameBytes bounds a single Server-Sent Events line.
const maxFrameBytes = 1 << 20

// StreamConn reads JSON-RPC response frames from a Server-Sent Events body.
type StreamConn struct {
	scanner *bufio.Scanner
	closer  io.Closer
	single  bool

	mu     sync.Mutex
	closed bool
	done   bool
}

// NewStreamConn creates a new StreamConn from an io.ReadCloser.
func NewStreamConn(rc io.ReadCloser) *StreamConn {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameBytes)
	return &StreamConn{
		scanner: scanner,
		closer:  rc,
	}
}

// newSingleFrameConn wraps a plain JSON response body as a one-frame stream.
func newSingleFrameConn(rc io.ReadCloser) *StreamConn {
	s := NewStreamConn(rc)
	s.single = true
	return s
}

// Close closes the stream connection.
func (s *StreamConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.closer.Close()
}

// ReadFrame returns the next JSON-RPC response frame. It returns [io.EOF]
// after the last frame.
//
// ctx is checked between lines; a blocked read is interrupted by Close.
func (s *StreamConn) ReadFrame(ctx context.Context) (*a2a.JSONRPCResponse, error) {
	if s.single {
		return s.readSingle()
	}

	var data []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading line: %w", err)
			}
			if len(data) > 0 {
				return decodeFrame(data)
			}
			return nil, io.EOF
		}

		line := s.scanner.Bytes()
		if len(line) == 0 {
			// Empty line indicates end of event
			if len(data) > 0 {
				return decodeFrame(data)
			}
			continue
		}

		if value, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, bytes.TrimPrefix(value, []byte(" "))...)
		}
		// event, id, retry and comment lines carry nothing for JSON-RPC frames.
	}
}

func (s *StreamConn) readSingle() (*a2a.JSONRPCResponse, error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil, io.EOF
	}
	s.done = true
	s.mu.Unlock()

	var buf bytes.Buffer
	for s.scanner.Scan() {
		buf.Write(s.scanner.Bytes())
		buf.WriteByte('\n')
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("empty response body")
	}
	return decodeFrame(buf.Bytes())
}
