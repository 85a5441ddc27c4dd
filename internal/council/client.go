// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/council-tui/internal/model"
)

// Configuration constants for the council backend API.
const (
	// DefaultBaseURL is where the backend listens in local development.
	DefaultBaseURL = "http://localhost:8001"

	// DefaultTimeout bounds plain request/response calls. Streaming calls
	// are bounded by their context, never by this timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the retry budget for idempotent fetches.
	// Stream requests are never retried; on failure the conversation is
	// re-fetched from the backend instead.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize caps non-streaming response bodies.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One pooled transport serves both plain and streaming requests; streaming
// responses stay open as long as their request context lives.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// =============================================================================
// ERROR TYPES
// =============================================================================

var (
	// ErrNotFound maps the backend's 404 for conversations and projects.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest maps the backend's 400 (e.g. invalid work mode).
	ErrBadRequest = errors.New("bad request")
)

// APIError is a backend error response that does not map to a sentinel.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the LLM Council backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	timeout    time.Duration
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		maxRetries: DefaultMaxRetries,
		timeout:    DefaultTimeout,
	}
}

// WithMaxRetries sets the retry budget for idempotent fetches.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithTimeout sets the per-request deadline for plain request/response
// calls. Streaming requests are bounded by their context only.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithHTTPClient replaces the HTTP client (tests use this).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// ListConversations fetches the conversation summaries, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var out []model.ConversationSummary
	if err := c.getJSON(ctx, "/api/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates a new empty conversation on the backend.
func (c *Client) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches the full conversation detail. This is the
// authoritative snapshot the reconciler applies after abnormal stream
// termination.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.getJSON(ctx, "/api/conversations/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConversation patches conversation metadata (title, work mode) and
// returns the updated record.
func (c *Client) UpdateConversation(ctx context.Context, id string, req UpdateConversationRequest) (*model.Conversation, error) {
	if req.WorkMode != nil && !req.WorkMode.Valid() {
		return nil, fmt.Errorf("%w: invalid work mode %q", ErrBadRequest, *req.WorkMode)
	}
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodPatch, "/api/conversations/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, nil)
}

// ExportConversation returns the conversation's JSON export payload.
func (c *Client) ExportConversation(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id)+"/export", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
}

// =============================================================================
// PROJECT OPERATIONS
// =============================================================================

// ListProjects fetches all projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.getJSON(ctx, "/api/projects", &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// CreateProject creates a project with the given name and color.
func (c *Client) CreateProject(ctx context.Context, name, color string) (*Project, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	var out Project
	if err := c.doJSON(ctx, http.MethodPost, "/api/projects", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject renames or recolors a project.
func (c *Client) UpdateProject(ctx context.Context, id, name, color string) (*Project, error) {
	body := map[string]string{}
	if name != "" {
		body["name"] = name
	}
	if color != "" {
		body["color"] = color
	}
	var out Project
	if err := c.doJSON(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project. Conversations are unassigned, not deleted.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

// AssignConversationProject assigns a conversation to a project.
// Pass nil to unassign.
func (c *Client) AssignConversationProject(ctx context.Context, conversationID string, projectID *string) error {
	body := map[string]*string{"project_id": projectID}
	return c.doJSON(ctx, http.MethodPut, "/api/conversations/"+url.PathEscape(conversationID)+"/project", body, nil)
}

// =============================================================================
// UPLOADS AND LIBRARY
// =============================================================================

// UploadFile uploads file content and returns the backend's stored record.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out UploadResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &out, nil
}

// LibraryFiles lists every uploaded file across all conversations.
func (c *Client) LibraryFiles(ctx context.Context) ([]LibraryFile, error) {
	var out struct {
		Files []LibraryFile `json:"files"`
		Total int           `json:"total"`
	}
	if err := c.getJSON(ctx, "/api/library/files", &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// =============================================================================
// COST ESTIMATION
// =============================================================================

// EstimateCost asks the backend for a council-run cost estimate. Callers
// should debounce keystroke-driven estimates (see the pricing package).
func (c *Client) EstimateCost(ctx context.Context, req EstimateRequest) (*CostEstimate, error) {
	if req.MessageLengthChars < 0 || req.AttachmentLengthChars < 0 {
		return nil, fmt.Errorf("%w: character lengths must be non-negative", ErrBadRequest)
	}
	var out CostEstimate
	if err := c.doJSON(ctx, http.MethodPost, "/api/estimate_cost", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// MESSAGE STREAM
// =============================================================================

// SendMessageStream submits a message and opens the backend's event stream
// for it. The returned body yields SSE frames for the FrameReader; the
// caller owns it and must close it. Cancel the context to abort the stream.
//
// The request is never retried: after any failure the conversation is
// re-fetched from the backend rather than replayed.
func (c *Client) SendMessageStream(ctx context.Context, conversationID string, req SendMessageRequest) (io.ReadCloser, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/api/conversations/" + url.PathEscape(conversationID) + "/message/stream"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	return resp.Body, nil
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// getJSON performs a GET with retry and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		resp, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			// 4xx errors never heal on retry.
			var apiErr *APIError
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest) ||
				(errors.As(err, &apiErr) && apiErr.Status < 500) {
				return err
			}
			lastErr = err
			continue
		}

		err = json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doJSON performs a single (non-retried) JSON round trip. out may be nil
// when the response body is irrelevant.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do issues one request and maps non-2xx statuses to errors.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		cancel()
		return nil, c.handleErrorResponse(resp.StatusCode, data)
	}

	// Release the timeout when the caller finishes the body.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelReadCloser ties a context cancel to body close so timeouts do not
// leak.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// handleErrorResponse maps a backend error body to a typed error.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var detail struct {
		Detail string `json:"detail"`
	}
	msg := ""
	if err := json.Unmarshal(body, &detail); err == nil {
		msg = detail.Detail
	}

	switch statusCode {
	case http.StatusNotFound:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return ErrNotFound
	case http.StatusBadRequest:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrBadRequest, msg)
		}
		return ErrBadRequest
	default:
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return &APIError{Status: statusCode, Detail: msg}
	}
}

// calculateBackoff returns the delay before the given retry attempt.
// Exponential: 500ms, 1000ms, 2000ms, capped at retryMaxDelay.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
