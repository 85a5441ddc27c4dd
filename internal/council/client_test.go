// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestListConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations" || r.Method != http.MethodGet {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]model.ConversationSummary{
			{ID: "c1", Title: "First", MessageCount: 4},
			{ID: "c2", Title: "Second", MessageCount: 0},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	got, err := client.ListConversations(context.Background())
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].Title != "Second" {
		t.Errorf("Unexpected summaries: %+v", got)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Conversation not found"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetConversation(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetConversationRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(model.Conversation{ID: "c1", Title: "Recovered"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	conv, err := client.GetConversation(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetConversation failed after retry: %v", err)
	}
	if conv.Title != "Recovered" {
		t.Errorf("Unexpected conversation: %+v", conv)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestUpdateConversationWorkMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Expected PATCH, got %s", r.Method)
		}
		var req UpdateConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.WorkMode == nil || *req.WorkMode != model.WorkModeCaseStudy {
			t.Errorf("Unexpected work mode: %v", req.WorkMode)
		}
		json.NewEncoder(w).Encode(model.Conversation{ID: "c1", WorkMode: model.WorkModeCaseStudy})
	}))
	defer srv.Close()

	mode := model.WorkModeCaseStudy
	client := NewClient(srv.URL)
	conv, err := client.UpdateConversation(context.Background(), "c1", UpdateConversationRequest{WorkMode: &mode})
	if err != nil {
		t.Fatalf("UpdateConversation failed: %v", err)
	}
	if conv.WorkMode != model.WorkModeCaseStudy {
		t.Errorf("Unexpected work mode: %q", conv.WorkMode)
	}
}

func TestUpdateConversationRejectsInvalidWorkMode(t *testing.T) {
	client := NewClient("http://unused.invalid")
	bad := model.WorkMode("poetry")
	_, err := client.UpdateConversation(context.Background(), "c1", UpdateConversationRequest{WorkMode: &bad})
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("Expected ErrBadRequest for invalid work mode, got %v", err)
	}
}

func TestEstimateCostRejectsNegativeLengths(t *testing.T) {
	client := NewClient("http://unused.invalid")
	_, err := client.EstimateCost(context.Background(), EstimateRequest{MessageLengthChars: -1})
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("Expected ErrBadRequest, got %v", err)
	}
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Bad multipart body: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Missing file field: %v", err)
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		json.NewEncoder(w).Encode(UploadResult{
			Name:       hdr.Filename,
			StoredName: "abc_" + hdr.Filename,
			URL:        "/uploads/abc_" + hdr.Filename,
			Size:       int64(len(content)),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	res, err := client.UploadFile(context.Background(), "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if res.Name != "notes.txt" || res.Size != 5 {
		t.Errorf("Unexpected upload result: %+v", res)
	}

	att := res.Attachment()
	if att.URL != res.URL || att.Name != res.Name {
		t.Errorf("Attachment conversion mismatch: %+v", att)
	}
}

func TestSendMessageStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/c1/message/stream" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content != "Summarize X" {
			t.Errorf("Unexpected request body: %+v (%v)", req, err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"stage1_start\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"complete\"}\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	body, err := client.SendMessageStream(context.Background(), "c1", SendMessageRequest{Content: "Summarize X"})
	if err != nil {
		t.Fatalf("SendMessageStream failed: %v", err)
	}
	defer body.Close()

	fr := NewFrameReader(body)
	first, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("First frame failed: %v", err)
	}
	ev, err := ParseEvent(first)
	if err != nil || ev.Kind != EventStage1Start {
		t.Errorf("Unexpected first event: %+v (%v)", ev, err)
	}
}

func TestSendMessageStreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Conversation not found"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.SendMessageStream(context.Background(), "missing", SendMessageRequest{Content: "hi"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
