package interaction

import "testing"

func TestTokenBimapRoundTrip(t *testing.T) {
	b := NewTokenBimap()
	tok, err := b.TokenFor("g1", "m1")
	if err != nil {
		t.Fatalf("TokenFor: %v", err)
	}
	if len(tok) != tokenLength {
		t.Errorf("token length = %d, want %d", len(tok), tokenLength)
	}

	key, ok := b.Resolve(tok)
	if !ok || key != sessionKey("g1", "m1") {
		t.Errorf("Resolve() = (%q, %v), want (%q, true)", key, ok, sessionKey("g1", "m1"))
	}
}

func TestTokenBimapStable(t *testing.T) {
	b := NewTokenBimap()
	tok1, _ := b.TokenFor("g1", "m1")
	tok2, _ := b.TokenFor("g1", "m1")
	if tok1 != tok2 {
		t.Errorf("expected stable token across calls, got %q then %q", tok1, tok2)
	}
}

func TestTokenBimapRelease(t *testing.T) {
	b := NewTokenBimap()
	tok, _ := b.TokenFor("g1", "m1")
	b.Release("g1", "m1")

	if _, ok := b.Resolve(tok); ok {
		t.Fatal("expected token resolution to miss after release")
	}
}
