// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = serverURL
	cfg.RetryDelay = time.Millisecond
	return NewClient(cfg, nil)
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

func TestCheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","rag_stats":{"total_documents":7,"subjects":{"수학":4,"과학":3}}}`))
	}))
	defer server.Close()

	resp, err := testClient(t, server.URL).CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth error: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want 'healthy'", resp.Status)
	}
	if resp.RAGStats.TotalDocuments != 7 {
		t.Errorf("TotalDocuments = %d, want 7", resp.RAGStats.TotalDocuments)
	}
	if resp.RAGStats.Subjects["수학"] != 4 {
		t.Errorf("Subjects[수학] = %d, want 4", resp.RAGStats.Subjects["수학"])
	}
}

func TestCheckHealth_RetriesTwice(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"healthy","rag_stats":{"total_documents":0,"subjects":{}}}`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth should succeed on third attempt: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3 (1 initial + 2 retries)", got)
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1")

	_, err := client.CheckHealth(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !IsConnection(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}

// =============================================================================
// CHAT
// =============================================================================

func TestSendChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s, want /chat", r.URL.Path)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Message != "수학 문제 도와줘" {
			t.Errorf("message = %q", req.Message)
		}
		if !req.UseRAG {
			t.Error("use_rag should be true")
		}
		if len(req.History) != 2 {
			t.Errorf("history length = %d, want 2", len(req.History))
		}

		w.Write([]byte(`{"response":"물론이야!","timestamp":"2025-01-01T00:00:00","rag_used":true,"sources":[{"subject":"수학"}]}`))
	}))
	defer server.Close()

	history := []ChatTurn{
		{Role: "user", Content: "안녕"},
		{Role: "assistant", Content: "안녕!"},
	}

	resp, err := testClient(t, server.URL).SendChat(context.Background(), "수학 문제 도와줘", history, true)
	if err != nil {
		t.Fatalf("SendChat error: %v", err)
	}

	if resp.Response != "물론이야!" {
		t.Errorf("Response = %q", resp.Response)
	}
	if !resp.RAGUsed {
		t.Error("RAGUsed should be true")
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Subject != "수학" {
		t.Errorf("Sources = %+v", resp.Sources)
	}
}

func TestSendChat_RetriesOnceThenApologizes(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).SendChat(context.Background(), "hi", nil, true)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2 (1 initial + 1 retry)", got)
	}

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("error is %T, want *ClientError", err)
	}
	if clientErr.Message != ChatUnavailableMessage {
		t.Errorf("Message = %q, want apology text", clientErr.Message)
	}
	if !IsService(err) {
		t.Errorf("expected service error kind, got %v", err)
	}
}

func TestSendChat_TimeoutLooksLikeConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.ChatTimeout = 20 * time.Millisecond
	cfg.RetryDelay = time.Millisecond
	client := NewClient(cfg, nil)

	_, err := client.SendChat(context.Background(), "hi", nil, false)
	if err == nil {
		t.Fatal("expected timeout error")
	}

	// Same retryable kind and user message as a connection failure; only
	// the underlying type differs for logging.
	if !IsTimeout(err) {
		t.Errorf("expected timeout error, got %v", err)
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Message != ChatUnavailableMessage {
		t.Errorf("Message = %q, want apology text", clientErr.Message)
	}
}

func TestSendChat_CancelledContextStopsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(t, server.URL).SendChat(ctx, "hi", nil, false)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if got := calls.Load(); got > 1 {
		t.Errorf("server calls = %d, want at most 1 after cancellation", got)
	}
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestUploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Errorf("path = %s, want /upload", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()

		if header.Filename != "math.txt" {
			t.Errorf("filename = %q", header.Filename)
		}
		if got := r.FormValue("subject"); got != "수학" {
			t.Errorf("subject = %q", got)
		}
		if got := r.FormValue("grade"); got != "" {
			t.Errorf("grade should be absent, got %q", got)
		}

		w.Write([]byte(`{"message":"ok","filename":"math.txt","documents_added":3,"metadata":{"filename":"math.txt","upload_date":"2025-01-01"}}`))
	}))
	defer server.Close()

	resp, err := testClient(t, server.URL).UploadFile(
		context.Background(),
		"math.txt",
		strings.NewReader("3 x 4 = 12"),
		UploadMetadata{Subject: "수학"},
	)
	if err != nil {
		t.Fatalf("UploadFile error: %v", err)
	}

	if resp.DocumentsAdded != 3 {
		t.Errorf("DocumentsAdded = %d, want 3", resp.DocumentsAdded)
	}
}

func TestUploadFile_NoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"지원하지 않는 파일 형식입니다"}`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).UploadFile(context.Background(), "x.bin", strings.NewReader("x"), UploadMetadata{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want exactly 1 (uploads are not retried)", got)
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Message != "지원하지 않는 파일 형식입니다" {
		t.Errorf("Message = %q, want backend error text", clientErr.Message)
	}
}

// =============================================================================
// DOCUMENT ENDPOINTS
// =============================================================================

func TestSearchDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query    string `json:"query"`
			NResults int    `json:"n_results"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.NResults != 3 {
			t.Errorf("n_results = %d, want default 3", req.NResults)
		}
		w.Write([]byte(`{"query":"분수","results":[{"id":"d1","text":"분수는...","metadata":{"subject":"수학"},"distance":0.12}]}`))
	}))
	defer server.Close()

	resp, err := testClient(t, server.URL).SearchDocuments(context.Background(), "분수", 0)
	if err != nil {
		t.Fatalf("SearchDocuments error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "d1" {
		t.Errorf("Results = %+v", resp.Results)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":["llama3.2:3b"]}`))
	}))
	defer server.Close()

	models, err := testClient(t, server.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 1 || models[0] != "llama3.2:3b" {
		t.Errorf("models = %v", models)
	}
}


// =============================================================================
// CONFIG DEFAULTS
// =============================================================================

// A config that only sets the server address and timeouts, the way the
// binary builds one from its config file, must still retry: one retry for
// chat and two for health.
func TestNewClient_FillsRetryCounts(t *testing.T) {
	var healthCalls, chatCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if healthCalls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"healthy","rag_stats":{"total_documents":0,"subjects":{}}}`))
	})
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		if chatCalls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"response":"안녕!","rag_used":false,"sources":[]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(&ClientConfig{
		BaseURL:       server.URL,
		ChatTimeout:   5 * time.Second,
		UploadTimeout: 5 * time.Second,
		HealthTimeout: 5 * time.Second,
	}, nil)

	if got := client.GetConfig().ChatRetries; got != 1 {
		t.Errorf("ChatRetries = %d, want 1", got)
	}
	if got := client.GetConfig().HealthRetries; got != 2 {
		t.Errorf("HealthRetries = %d, want 2", got)
	}

	if _, err := client.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth error: %v", err)
	}
	if got := healthCalls.Load(); got != 3 {
		t.Errorf("health calls = %d, want 3 (1 initial + 2 retries)", got)
	}

	if _, err := client.SendChat(context.Background(), "hi", nil, false); err != nil {
		t.Fatalf("SendChat error: %v", err)
	}
	if got := chatCalls.Load(); got != 2 {
		t.Errorf("chat calls = %d, want 2 (1 initial + 1 retry)", got)
	}
}
