// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the StudyMate
// backend service.
package api

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatTurn is a single turn of conversation history as the backend expects it.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat and POST /chat/stream.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
	UseRAG  bool       `json:"use_rag"`
}

// Source describes a reference document the backend used to answer.
type Source struct {
	Subject  string `json:"subject,omitempty"`
	Grade    string `json:"grade,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Filename string `json:"filename,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response    string   `json:"response"`
	Timestamp   string   `json:"timestamp"`
	RAGUsed     bool     `json:"rag_used,omitempty"`
	Sources     []Source `json:"sources,omitempty"`
	ContextSize int      `json:"context_size,omitempty"`
}

// StreamChunk is one decoded fragment of a /chat/stream response.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// =============================================================================
// HEALTH TYPES
// =============================================================================

// DocumentStats summarizes the documents held by the backend's RAG store.
// It is replaced wholesale on each successful health check, never mutated
// field by field.
type DocumentStats struct {
	TotalDocuments int            `json:"total_documents"`
	Subjects       map[string]int `json:"subjects"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp,omitempty"`
	RAGStats  DocumentStats `json:"rag_stats"`
}

// =============================================================================
// UPLOAD TYPES
// =============================================================================

// UploadMetadata carries the optional classification fields for an upload.
// Empty fields are omitted from the multipart form entirely.
type UploadMetadata struct {
	Subject string
	Grade   string
	Topic   string
}

// UploadedFileInfo echoes the metadata the backend recorded for an upload.
type UploadedFileInfo struct {
	Subject    string `json:"subject,omitempty"`
	Grade      string `json:"grade,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Message        string           `json:"message"`
	Filename       string           `json:"filename"`
	DocumentsAdded int              `json:"documents_added"`
	Metadata       UploadedFileInfo `json:"metadata"`
}

// =============================================================================
// DOCUMENT ENDPOINT TYPES
// =============================================================================

// SearchResult is one hit from POST /documents/search.
type SearchResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// SearchResponse is the body returned by POST /documents/search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// ModelsResponse is the body returned by GET /models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// errorBody is the backend's error envelope on non-2xx responses.
type errorBody struct {
	Error string `json:"error"`
}
