package interaction

import (
	"testing"
	"time"
)

func TestTweakSessionCreateAndGet(t *testing.T) {
	s := NewTweakSessionStore(time.Hour)
	s.Create(&TweakSession{GenerationID: "g1", MasterAccountID: "m1", Payload: map[string]any{"input_steps": 20}})

	got, ok := s.Get("g1", "m1")
	if !ok {
		t.Fatal("expected session")
	}
	if got.Payload["input_steps"] != 20 {
		t.Errorf("Payload = %v", got.Payload)
	}
}

func TestTweakSessionExpiry(t *testing.T) {
	s := NewTweakSessionStore(time.Millisecond)
	s.Create(&TweakSession{GenerationID: "g1", MasterAccountID: "m1"})
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.Get("g1", "m1"); ok {
		t.Fatal("expected expired session to miss")
	}
}

func TestTweakSessionDeleteAndRecreate(t *testing.T) {
	s := NewTweakSessionStore(time.Hour)
	s.Create(&TweakSession{GenerationID: "g1", MasterAccountID: "m1", Payload: map[string]any{"input_steps": 20}})
	s.Delete("g1", "m1")

	if _, ok := s.Get("g1", "m1"); ok {
		t.Fatal("expected session deleted")
	}

	s.Create(&TweakSession{GenerationID: "g1", MasterAccountID: "m1", Payload: map[string]any{"input_steps": 99}})
	got, ok := s.Get("g1", "m1")
	if !ok || got.Payload["input_steps"] != 99 {
		t.Fatalf("expected re-initialized session, got %+v", got)
	}
}
