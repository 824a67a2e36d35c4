package dataapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", time.Second, nil), srv
}

func TestFindOrCreateUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(serviceKeyHeader); got != "test-key" {
			t.Errorf("missing service key header, got %q", got)
		}
		var req FindOrCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Platform != "telegram" {
			t.Errorf("platform = %q, want telegram", req.Platform)
		}
		json.NewEncoder(w).Encode(FindOrCreateResponse{MasterAccountID: "maid-1", IsNewUser: true})
	})

	resp, err := c.FindOrCreateUser(context.Background(), FindOrCreateRequest{Platform: "telegram", PlatformID: "123"})
	if err != nil {
		t.Fatalf("FindOrCreateUser: %v", err)
	}
	if resp.MasterAccountID != "maid-1" {
		t.Errorf("MasterAccountID = %q, want maid-1", resp.MasterAccountID)
	}
}

func TestGetGenerationNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "not_found", "message": "no such generation"}})
	})

	_, err := c.GetGeneration(context.Background(), "missing-id")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound, got %v", err)
	}
}

func TestRequestPlatformLinkConflict(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "conflict", "message": "pending request exists"}})
	})

	_, err := c.RequestPlatformLink(context.Background(), PlatformLinkRequest{MasterAccountID: "maid-1"})
	if !IsConflict(err) {
		t.Errorf("expected IsConflict, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		json.NewEncoder(w).Encode(ExecuteResponse{GenerationID: "gen-2", RunID: "run-2"})
	})

	resp, err := c.Execute(context.Background(), ExecuteRequest{ToolID: "img-quick", Inputs: map[string]any{"input_prompt": "a cat"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.GenerationID != "gen-2" {
		t.Errorf("GenerationID = %q, want gen-2", resp.GenerationID)
	}
}
