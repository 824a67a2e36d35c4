package dispatch

import "testing"

func TestCommandDispatchMatch(t *testing.T) {
	d := NewCommandDispatcher(nil)
	var got string
	if err := d.Register(`^/start$`, func(cmd InboundCommand) error { got = cmd.Command; return nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}

	matched, err := d.Dispatch(InboundCommand{Command: "/start"})
	if !matched || err != nil {
		t.Fatalf("Dispatch() = (%v, %v)", matched, err)
	}
	if got != "/start" {
		t.Errorf("handler saw %q", got)
	}
}

func TestCommandDispatchNoMatch(t *testing.T) {
	d := NewCommandDispatcher(nil)
	d.Register(`^/start$`, func(cmd InboundCommand) error { return nil })

	matched, err := d.Dispatch(InboundCommand{Command: "/unknown"})
	if matched || err != nil {
		t.Fatalf("Dispatch() = (%v, %v), want (false, nil)", matched, err)
	}
}
