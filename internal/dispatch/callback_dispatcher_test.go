package dispatch

import (
	"errors"
	"testing"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

func TestCallbackDispatchFirstPrefixWins(t *testing.T) {
	d := NewCallbackQueryDispatcher(nil)
	var gotTweak, gotTweakApply bool
	d.Register(protocol.PrefixTweakGen, func(cb InboundCallback) error { gotTweak = true; return nil })
	d.Register(protocol.PrefixTweakApply, func(cb InboundCallback) error { gotTweakApply = true; return nil })

	matched, err := d.Dispatch(InboundCallback{Data: protocol.TweakApplyCallback("abcd1234")})
	if err != nil || !matched {
		t.Fatalf("Dispatch() = (%v, %v)", matched, err)
	}
	if gotTweak || !gotTweakApply {
		t.Errorf("expected tweak_apply handler only, got tweak=%v apply=%v", gotTweak, gotTweakApply)
	}
}

func TestCallbackAuthorizationDeniedForNonCommander(t *testing.T) {
	d := NewCallbackQueryDispatcher(nil)
	called := false
	d.Register(protocol.PrefixTweakGen, func(cb InboundCallback) error { called = true; return nil })

	matched, err := d.Dispatch(InboundCallback{
		Data:              protocol.TweakGenCallback("g1"),
		RepliedFromUserID: "owner",
		SenderPlatformID:  "intruder",
	})
	if !matched {
		t.Fatal("expected prefix to match even when denied")
	}
	if !IsAuthDenied(err) {
		t.Errorf("expected auth-denied error, got %v", err)
	}
	if called {
		t.Error("handler must not run when authorization fails")
	}
}

func TestCallbackRateGenOpenInGroup(t *testing.T) {
	d := NewCallbackQueryDispatcher(nil)
	called := false
	d.Register(protocol.PrefixRateGen, func(cb InboundCallback) error { called = true; return nil })

	matched, err := d.Dispatch(InboundCallback{
		Data:              protocol.RateGenCallback("g1", protocol.RatingBeautiful),
		RepliedFromUserID: "owner",
		SenderPlatformID:  "anyone",
		IsGroup:           true,
	})
	if !matched || err != nil {
		t.Fatalf("Dispatch() = (%v, %v)", matched, err)
	}
	if !called {
		t.Error("expected rate_gen handler to run for non-owner in group")
	}
}

func TestCallbackNoMatch(t *testing.T) {
	d := NewCallbackQueryDispatcher(nil)
	matched, err := d.Dispatch(InboundCallback{Data: "unknown_prefix:1"})
	if matched || err != nil {
		t.Fatalf("Dispatch() = (%v, %v), want (false, nil)", matched, err)
	}
}

func TestCallbackOverwriteWarns(t *testing.T) {
	d := NewCallbackQueryDispatcher(nil)
	d.Register("foo:", func(cb InboundCallback) error { return nil })
	d.Register("foo:", func(cb InboundCallback) error { return errors.New("second") })

	_, err := d.Dispatch(InboundCallback{Data: "foo:1"})
	if err == nil || err.Error() != "second" {
		t.Errorf("expected second registration to win, got %v", err)
	}
}
