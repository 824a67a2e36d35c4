package telegram

import (
	"errors"
	"testing"

	"github.com/nextlevelbuilder/forgebot/internal/transport"
)

func TestBuildKeyboardEmpty(t *testing.T) {
	if kb := buildKeyboard(nil); kb != nil {
		t.Fatalf("buildKeyboard(nil) = %v, want nil", kb)
	}
}

func TestBuildKeyboardRows(t *testing.T) {
	kb := buildKeyboard(transport.InlineKeyboard{
		{{Text: "👍", CallbackData: "rate_gen:up:g1"}, {Text: "👎", CallbackData: "rate_gen:down:g1"}},
		{{Text: "Tweak", CallbackData: "tweak_menu:g1"}},
	})
	if kb == nil {
		t.Fatal("buildKeyboard() = nil")
	}
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(kb.InlineKeyboard))
	}
	if len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("len(row 0) = %d, want 2", len(kb.InlineKeyboard[0]))
	}
	if kb.InlineKeyboard[1][0].CallbackData != "tweak_menu:g1" {
		t.Errorf("callback data = %q", kb.InlineKeyboard[1][0].CallbackData)
	}
}

func TestParseChatID(t *testing.T) {
	id, err := parseChatID("-1001234567890")
	if err != nil {
		t.Fatalf("parseChatID: %v", err)
	}
	if id != -1001234567890 {
		t.Errorf("id = %d", id)
	}

	if _, err := parseChatID("not-a-number"); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}

func TestIsNotEditable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("telego: api: 400 Bad Request: message to edit not found"), true},
		{errors.New("telego: api: 400 Bad Request: message can't be edited"), true},
		{errors.New("telego: api: 400 Bad Request: MESSAGE_ID_INVALID"), true},
		{errors.New("telego: api: 429 Too Many Requests"), false},
	}
	for _, c := range cases {
		if got := isNotEditable(c.err); got != c.want {
			t.Errorf("isNotEditable(%q) = %v, want %v", c.err, got, c.want)
		}
	}
}
