// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the StudyMate
// backend service.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// dataPrefix marks a server-sent-event payload line.
const dataPrefix = "data: "

// StreamCallback is called for each chunk received during streaming.
type StreamCallback func(chunk StreamChunk)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends a chat request to the streaming endpoint and calls the
// callback for each decoded chunk, in arrival order, until the stream ends
// or the context is cancelled.
//
// The streaming call carries no timeout of its own; it reads until the
// server closes the stream. Malformed event lines are logged and skipped,
// never surfaced to the caller.
//
// This is an alternate transport for chat; the main pipeline uses SendChat.
func (c *Client) ChatStream(ctx context.Context, message string, history []ChatTurn, useRAG bool, callback StreamCallback) error {
	reqBody := ChatRequest{
		Message: message,
		History: history,
		UseRAG:  useRAG,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &ClientError{Type: ErrTypeConnection, Message: "request abandoned", Cause: err}
		}
		return c.classify(ctx, err, "/chat/stream")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.serviceError(resp, "/chat/stream")
	}

	reader := newStreamReader(resp.Body, c.log)
	return reader.process(ctx, callback)
}

// ChatStreamChan is the channel variant of ChatStream. The returned channel
// is closed when the stream completes; a terminal error arrives as a chunk
// with Error set.
func (c *Client) ChatStreamChan(ctx context.Context, message string, history []ChatTurn, useRAG bool) <-chan StreamChunk {
	ch := make(chan StreamChunk)

	go func() {
		defer close(ch)

		err := c.ChatStream(ctx, message, history, useRAG, func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamChunk{Error: err.Error(), Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// =============================================================================
// STREAM READER
// =============================================================================

// streamReader handles line-by-line decoding of server-sent-event payloads.
type streamReader struct {
	reader *bufio.Reader
	log    *zap.Logger
}

func newStreamReader(r io.Reader, log *zap.Logger) *streamReader {
	return &streamReader{
		reader: bufio.NewReader(r),
		log:    log,
	}
}

// process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *streamReader) process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return &ClientError{Type: ErrTypeConnection, Message: "request abandoned", Cause: ctx.Err()}
		default:
		}

		chunk, err := s.readChunk()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}
		}

		if chunk == nil {
			continue
		}

		callback(*chunk)
		if chunk.Done {
			return nil
		}
	}
}

// readChunk reads and parses a single event line from the stream.
// Returns (nil, nil) for lines that carry no chunk: blanks, comments,
// and malformed payloads.
func (s *streamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(strings.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}
		if len(strings.TrimSpace(line)) == 0 {
			return nil, err
		}
		// Process the final unterminated line before reporting EOF.
	}

	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, dataPrefix) {
		return nil, nil
	}

	var chunk StreamChunk
	if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &chunk); err != nil {
		// StreamDecodeFailure: recovered locally, skip the line.
		s.log.Warn("skipping malformed stream line", zap.String("line", line), zap.Error(err))
		return nil, nil
	}

	return &chunk, nil
}
