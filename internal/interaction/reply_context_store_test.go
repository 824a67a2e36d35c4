package interaction

import (
	"testing"
	"time"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

func TestReplyContextTakeConsumesOnce(t *testing.T) {
	s := NewReplyContextStore(time.Hour)
	s.Put("chat1", 10, protocol.ReplyContext{Type: protocol.ReplyTypeSettingsParamEdit})

	ctx, ok := s.Take("chat1", 10)
	if !ok {
		t.Fatal("expected context on first Take")
	}
	if ctx.Type != protocol.ReplyTypeSettingsParamEdit {
		t.Errorf("Type = %q", ctx.Type)
	}

	if _, ok := s.Take("chat1", 10); ok {
		t.Fatal("expected second Take to miss")
	}
}

func TestReplyContextExpiry(t *testing.T) {
	s := NewReplyContextStore(time.Millisecond)
	s.Put("chat1", 10, protocol.ReplyContext{Type: protocol.ReplyTypeLoraImportURL})
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.Take("chat1", 10); ok {
		t.Fatal("expected expired context to miss")
	}
}

func TestReplyContextReapExpired(t *testing.T) {
	s := NewReplyContextStore(time.Millisecond)
	s.Put("chat1", 1, protocol.ReplyContext{Type: protocol.ReplyTypeLoraImportURL})
	s.Put("chat1", 2, protocol.ReplyContext{Type: protocol.ReplyTypeLoraImportURL})
	time.Sleep(5 * time.Millisecond)

	if n := s.ReapExpired(time.Now()); n != 2 {
		t.Errorf("ReapExpired = %d, want 2", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}
