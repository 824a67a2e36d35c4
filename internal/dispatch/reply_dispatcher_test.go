package dispatch

import (
	"testing"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

func TestReplyDispatchMatch(t *testing.T) {
	d := NewMessageReplyDispatcher(nil)
	var gotText string
	d.Register(protocol.ReplyTypeTweakParamEdit, func(reply InboundReply) error { gotText = reply.Text; return nil })

	matched, err := d.Dispatch(InboundReply{
		Text:    "30",
		Context: protocol.ReplyContext{Type: protocol.ReplyTypeTweakParamEdit},
	})
	if !matched || err != nil {
		t.Fatalf("Dispatch() = (%v, %v)", matched, err)
	}
	if gotText != "30" {
		t.Errorf("handler saw text %q", gotText)
	}
}

func TestReplyDispatchNoMatch(t *testing.T) {
	d := NewMessageReplyDispatcher(nil)
	matched, _ := d.Dispatch(InboundReply{Context: protocol.ReplyContext{Type: protocol.ReplyTypeLoraImportURL}})
	if matched {
		t.Fatal("expected no match for unregistered type")
	}
}
