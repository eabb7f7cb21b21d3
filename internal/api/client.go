// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the StudyMate
// backend service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the StudyMate backend client.
// All transport failures are normalized into this one type; no error shape
// from the underlying HTTP stack reaches callers.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeService
	ErrTypeStreamDecode
)

// ChatUnavailableMessage is the user-facing text surfaced when a chat call
// fails after its retry is exhausted. Matches the backend's tone for its
// elementary-school audience.
const ChatUnavailableMessage = "죄송해요, 지금은 대답하기 어려워요. 😢 잠시 후 다시 시도해줄래요?"

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsConnection checks if an error indicates the server is unreachable.
func IsConnection(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeConnection
	}
	return false
}

// IsService checks if an error is a non-2xx response from a reachable server.
func IsService(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeService
	}
	return false
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the StudyMate client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:5000)
	BaseURL string

	// ChatTimeout for POST /chat (default: 30s)
	ChatTimeout time.Duration

	// UploadTimeout for POST /upload (default: 60s)
	UploadTimeout time.Duration

	// HealthTimeout for GET /health (default: 5s)
	HealthTimeout time.Duration

	// SearchTimeout for the secondary document endpoints (default: 10s)
	SearchTimeout time.Duration

	// ChatRetries is how many times a failed chat call is retried (default: 1)
	ChatRetries int

	// HealthRetries is how many times a failed health check is retried (default: 2)
	HealthRetries int

	// RetryDelay between retries (default: 500ms)
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:5000",
		ChatTimeout:   30 * time.Second,
		UploadTimeout: 60 * time.Second,
		HealthTimeout: 5 * time.Second,
		SearchTimeout: 10 * time.Second,
		ChatRetries:   1,
		HealthRetries: 2,
		RetryDelay:    500 * time.Millisecond,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the StudyMate backend.
//
// The Client holds no per-call state and is safe for concurrent use. Each
// operation carries its own timeout; cancellation of the caller's context
// aborts the call immediately, retries included.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a new StudyMate client.
// A nil config uses defaults; a nil logger disables logging.
func NewClient(config *ClientConfig, log *zap.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:5000"
	}
	if config.ChatTimeout == 0 {
		config.ChatTimeout = 30 * time.Second
	}
	if config.UploadTimeout == 0 {
		config.UploadTimeout = 60 * time.Second
	}
	if config.HealthTimeout == 0 {
		config.HealthTimeout = 5 * time.Second
	}
	if config.SearchTimeout == 0 {
		config.SearchTimeout = 10 * time.Second
	}
	if config.ChatRetries == 0 {
		config.ChatRetries = 1
	}
	if config.HealthRetries == 0 {
		config.HealthRetries = 2
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}

	return &Client{
		config: config,
		// Timeouts are applied per call via context; the shared client
		// carries none so the streaming path can reuse it.
		httpClient: &http.Client{},
		log:        log.Named("api"),
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth verifies the backend is reachable and returns its document
// statistics. Used both as the initial readiness probe and to refresh stats.
func (c *Client) CheckHealth(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/health", nil, c.config.HealthTimeout, c.config.HealthRetries, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// CHAT
// =============================================================================

// SendChat sends a chat message with conversation history and returns the
// complete response. A failed call is retried once; after that the error
// surfaces with the user-facing apology as its message.
func (c *Client) SendChat(ctx context.Context, message string, history []ChatTurn, useRAG bool) (*ChatResponse, error) {
	reqBody := ChatRequest{
		Message: message,
		History: history,
		UseRAG:  useRAG,
	}

	var result ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chat", reqBody, c.config.ChatTimeout, c.config.ChatRetries, &result)
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			// Callers show this text directly; the taxonomy stays intact
			// underneath for logging.
			return nil, &ClientError{Type: clientErr.Type, Message: ChatUnavailableMessage, Cause: clientErr}
		}
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// UploadFile uploads a reference document as multipart form data. Optional
// metadata fields are included only when present. Uploads are never retried:
// a duplicate upload adds duplicate documents on the backend.
func (c *Client) UploadFile(ctx context.Context, filename string, file io.Reader, meta UploadMetadata) (*UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build upload form", Cause: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to read upload file", Cause: err}
	}

	for field, value := range map[string]string{
		"subject": meta.Subject,
		"grade":   meta.Grade,
		"topic":   meta.Topic,
	} {
		if value == "" {
			continue
		}
		if err := writer.WriteField(field, value); err != nil {
			return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build upload form", Cause: err}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build upload form", Cause: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.BaseURL+"/upload", &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cerr := c.classify(ctx, err, "/upload")
		return nil, cerr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.serviceError(resp, "/upload")
	}

	var result UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeService, Message: "failed to decode upload response", Cause: err}
	}
	return &result, nil
}

// =============================================================================
// DOCUMENT ENDPOINTS
// =============================================================================

// SearchDocuments queries the backend's document store directly.
func (c *Client) SearchDocuments(ctx context.Context, query string, nResults int) (*SearchResponse, error) {
	if nResults <= 0 {
		nResults = 3
	}

	reqBody := struct {
		Query    string `json:"query"`
		NResults int    `json:"n_results"`
	}{Query: query, NResults: nResults}

	var result SearchResponse
	err := c.doJSON(ctx, http.MethodPost, "/documents/search", reqBody, c.config.SearchTimeout, 0, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ClearDocuments removes every document from the backend's store.
func (c *Client) ClearDocuments(ctx context.Context) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/documents/clear", nil, c.config.HealthTimeout, 0, &result)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// ListModels returns the model names available on the backend.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var result ModelsResponse
	err := c.doJSON(ctx, http.MethodGet, "/models", nil, c.config.HealthTimeout, 0, &result)
	if err != nil {
		return nil, err
	}
	return result.Models, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs a JSON request with per-attempt timeout and a bounded
// retry count. Timeout, connection, and service failures are all retried
// the same way; only the caller's context cancellation stops early.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, timeout time.Duration, retries int, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &ClientError{Type: ErrTypeConnection, Message: "request abandoned", Cause: ctx.Err()}
			case <-time.After(c.config.RetryDelay):
			}
			c.log.Info("retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1))
		}

		lastErr = c.attemptJSON(ctx, method, path, payload, timeout, out)
		if lastErr == nil {
			return nil
		}

		// Supersession or caller shutdown: stop immediately, the result
		// would be discarded anyway.
		if ctx.Err() != nil {
			return &ClientError{Type: ErrTypeConnection, Message: "request abandoned", Cause: ctx.Err()}
		}
	}

	return lastErr
}

// attemptJSON performs a single request attempt.
func (c *Client) attemptJSON(ctx context.Context, method, path string, payload []byte, timeout time.Duration, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classify(ctx, err, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.serviceError(resp, path)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeService, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// classify normalizes a transport-level failure. Timeouts and connection
// failures are treated identically by callers but logged distinctly.
func (c *Client) classify(ctx context.Context, err error, path string) *ClientError {
	if ctx.Err() != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "request abandoned", Cause: ctx.Err()}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.log.Warn("request timed out", zap.String("path", path), zap.Error(err))
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}

	c.log.Warn("server unreachable", zap.String("path", path), zap.Error(err))
	return &ClientError{Type: ErrTypeConnection, Message: "server unreachable", Cause: err}
}

// serviceError builds the error for a non-2xx response, preferring the
// backend's own error message when the envelope parses.
func (c *Client) serviceError(resp *http.Response, path string) *ClientError {
	msg := fmt.Sprintf("unexpected status %s", resp.Status)

	var envelope errorBody
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		msg = envelope.Error
	}

	c.log.Warn("service error",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg))

	return &ClientError{Type: ErrTypeService, Message: msg}
}
