package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
)

func TestResolveIsIdempotent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(dataapi.FindOrCreateResponse{MasterAccountID: "maid-1"})
	}))
	defer srv.Close()

	r := New(dataapi.NewClient(srv.URL, "key", time.Second, nil))

	for i := 0; i < 3; i++ {
		maid, err := r.Resolve(context.Background(), "telegram", "123", nil)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if maid != "maid-1" {
			t.Errorf("Resolve() = %q, want maid-1", maid)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("data API called %d times, want 1", got)
	}
}

func TestResolveDistinguishesPlatforms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dataapi.FindOrCreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(dataapi.FindOrCreateResponse{MasterAccountID: "maid-" + req.Platform})
	}))
	defer srv.Close()

	r := New(dataapi.NewClient(srv.URL, "key", time.Second, nil))

	tgMaid, _ := r.Resolve(context.Background(), "telegram", "123", nil)
	dcMaid, _ := r.Resolve(context.Background(), "discord", "123", nil)

	if tgMaid == dcMaid {
		t.Errorf("expected distinct master accounts, got %q for both", tgMaid)
	}
}

func TestForget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(dataapi.FindOrCreateResponse{MasterAccountID: "maid-1"})
	}))
	defer srv.Close()

	r := New(dataapi.NewClient(srv.URL, "key", time.Second, nil))
	r.Resolve(context.Background(), "telegram", "123", nil)
	r.Forget("telegram", "123")
	r.Resolve(context.Background(), "telegram", "123", nil)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("data API called %d times after Forget, want 2", got)
	}
}
