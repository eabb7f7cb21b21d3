// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/stream" {
			t.Errorf("path = %s, want /chat/stream", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"content\":\"물론\"}\n\n"))
		w.Write([]byte("data: {\"content\":\"이야!\"}\n\n"))
		w.Write([]byte("data: {\"done\": true}\n\n"))
	}))
	defer server.Close()

	var got strings.Builder
	var done bool

	err := testClient(t, server.URL).ChatStream(context.Background(), "hi", nil, true, func(chunk StreamChunk) {
		got.WriteString(chunk.Content)
		if chunk.Done {
			done = true
		}
	})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}

	if got.String() != "물론이야!" {
		t.Errorf("accumulated = %q, want '물론이야!'", got.String())
	}
	if !done {
		t.Error("done chunk was never delivered")
	}
}

func TestChatStream_SkipsMalformedLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"a\"}\n"))
		w.Write([]byte("data: {not json}\n"))
		w.Write([]byte(": a comment line\n"))
		w.Write([]byte("data: {\"content\":\"b\"}\n"))
		w.Write([]byte("data: {\"done\": true}\n"))
	}))
	defer server.Close()

	var got strings.Builder
	err := testClient(t, server.URL).ChatStream(context.Background(), "hi", nil, false, func(chunk StreamChunk) {
		got.WriteString(chunk.Content)
	})
	if err != nil {
		t.Fatalf("malformed lines must not be fatal: %v", err)
	}

	if got.String() != "ab" {
		t.Errorf("accumulated = %q, want 'ab'", got.String())
	}
}

func TestChatStream_EndsCleanlyWithoutDoneMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stream closed by the server without a done chunk.
		w.Write([]byte("data: {\"content\":\"partial\"}\n"))
	}))
	defer server.Close()

	var got strings.Builder
	err := testClient(t, server.URL).ChatStream(context.Background(), "hi", nil, false, func(chunk StreamChunk) {
		got.WriteString(chunk.Content)
	})
	if err != nil {
		t.Fatalf("stream end without done marker should not error: %v", err)
	}
	if got.String() != "partial" {
		t.Errorf("accumulated = %q, want 'partial'", got.String())
	}
}

func TestChatStream_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"메시지를 입력해주세요"}`))
	}))
	defer server.Close()

	err := testClient(t, server.URL).ChatStream(context.Background(), "", nil, false, func(StreamChunk) {})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !IsService(err) {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestChatStreamChan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"x\"}\n"))
		w.Write([]byte("data: {\"done\": true}\n"))
	}))
	defer server.Close()

	ch := testClient(t, server.URL).ChatStreamChan(context.Background(), "hi", nil, false)

	var got strings.Builder
	for chunk := range ch {
		if chunk.Error != "" {
			t.Fatalf("unexpected stream error: %s", chunk.Error)
		}
		got.WriteString(chunk.Content)
	}

	if got.String() != "x" {
		t.Errorf("accumulated = %q, want 'x'", got.String())
	}
}
