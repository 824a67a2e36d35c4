package delivery

import (
	"testing"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

func sampleGeneration() *protocol.GenerationRecord {
	return &protocol.GenerationRecord{
		ID:              "g1",
		ToolDisplayName: "Quick Image",
		RequestPayload:  map[string]any{"input_prompt": "a cat"},
		ResponsePayload: []protocol.ResponseEntry{{Data: protocol.ResponseMedia{Images: []protocol.MediaAsset{{URL: "https://cdn.example.com/a.png"}}}}},
		Metadata: protocol.GenerationMetadata{
			TelegramMessageID: 55,
			NotificationContext: &protocol.NotificationContext{ChatID: "chat-1", MessageID: 200},
		},
	}
}

func TestBuildDeliveryCardUsesPhotoMedia(t *testing.T) {
	card := Build(sampleGeneration(), 0, 0)
	if card.Message.Media != "photo" {
		t.Errorf("Media = %q, want photo", card.Message.Media)
	}
	if card.Message.MediaURL != "https://cdn.example.com/a.png" {
		t.Errorf("MediaURL = %q", card.Message.MediaURL)
	}
}

func TestKeyboardCounters(t *testing.T) {
	kb := BuildKeyboard("g1", 2, 1)
	tweakLabel := kb[1][2].Text
	rerunLabel := kb[1][3].Text
	if tweakLabel != "✎2" {
		t.Errorf("tweak label = %q, want ✎2", tweakLabel)
	}
	if rerunLabel != "↻1" {
		t.Errorf("rerun label = %q, want ↻1", rerunLabel)
	}
}

func TestRestoreDeliveryRoundTrip(t *testing.T) {
	gen := sampleGeneration()
	built := Build(gen, 1, 0)
	restored := RestoreDelivery(gen, 1, 0)

	if built.Message.Media != restored.Message.Media || built.Message.MediaURL != restored.Message.MediaURL {
		t.Fatalf("media mismatch: %+v vs %+v", built.Message, restored.Message)
	}
	if built.Message.Text.String() != restored.Message.Text.String() {
		t.Fatalf("text mismatch: %q vs %q", built.Message.Text.String(), restored.Message.Text.String())
	}
	if len(built.Message.Keyboard) != len(restored.Message.Keyboard) {
		t.Fatalf("keyboard shape mismatch")
	}
	if restored.ReplyTo != gen.Metadata.TelegramMessageID {
		t.Errorf("restored ReplyTo = %d, want %d", restored.ReplyTo, gen.Metadata.TelegramMessageID)
	}
}
