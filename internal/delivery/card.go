// Package delivery builds the post-generation message (C6): the standard
// rating+action inline keyboard over whatever media or text a completed
// generation produced, and the "restore delivery" reconstruction used
// when a sub-menu was opened on top of it.
package delivery

import (
	"fmt"

	"github.com/nextlevelbuilder/forgebot/internal/safety"
	"github.com/nextlevelbuilder/forgebot/internal/transport"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// tweakGlyph / rerunGlyph are the base button glyphs; a counter is
// appended once either action has fired at least once (§4.4 step 4,
// §4.5).
const (
	tweakGlyph = "✎"
	rerunGlyph = "↻"
)

// counterSuffix renders "" for a zero count, else the count appended to
// the glyph ("✎1", "✎2", ...).
func counterSuffix(glyph string, count int) string {
	if count <= 0 {
		return glyph
	}
	return fmt.Sprintf("%s%d", glyph, count)
}

// BuildKeyboard renders the standard two-row delivery-card keyboard:
// rating buttons, then hide/info/tweak/rerun (§4.6).
func BuildKeyboard(generationID string, tweakCount, rerunCount int) transport.InlineKeyboard {
	return transport.InlineKeyboard{
		{
			{Text: "😻", CallbackData: protocol.RateGenCallback(generationID, protocol.RatingBeautiful)},
			{Text: "😹", CallbackData: protocol.RateGenCallback(generationID, protocol.RatingFunny)},
			{Text: "😿", CallbackData: protocol.RateGenCallback(generationID, protocol.RatingNegative)},
		},
		{
			{Text: "🙈", CallbackData: protocol.PrefixHideMenu},
			{Text: "ℹ️", CallbackData: protocol.ViewGenInfoCallback(generationID)},
			{Text: counterSuffix(tweakGlyph, tweakCount), CallbackData: protocol.TweakGenCallback(generationID)},
			{Text: counterSuffix(rerunGlyph, rerunCount), CallbackData: protocol.RerunGenCallback(generationID, rerunCount)},
		},
	}
}

// Card is a rendered delivery card ready to hand to a transport.
type Card struct {
	Message  transport.OutgoingMessage
	ReplyTo  int
}

// Build renders the delivery card for a completed generation, choosing
// media vs text based on whichever response variant is populated.
func Build(gen *protocol.GenerationRecord, tweakCount, rerunCount int) Card {
	media := gen.FirstResponse()
	keyboard := BuildKeyboard(gen.ID, tweakCount, rerunCount)

	chatID := ""
	replyTo := 0
	if gen.Metadata.NotificationContext != nil {
		chatID = gen.Metadata.NotificationContext.ChatID
		if gen.Metadata.NotificationContext.MessageID != 0 {
			replyTo = gen.Metadata.NotificationContext.MessageID
		} else {
			replyTo = gen.Metadata.NotificationContext.ReplyToMessageID
		}
	}

	out := transport.OutgoingMessage{
		ChatID:   chatID,
		ReplyTo:  replyTo,
		Keyboard: keyboard,
	}

	switch {
	case len(media.Images) > 0:
		out.Media = transport.MediaPhoto
		out.MediaURL = media.Images[0].URL
		out.Text = captionFor(gen)
	case len(media.Animations) > 0:
		out.Media = transport.MediaAnimation
		out.MediaURL = media.Animations[0].URL
		out.Text = captionFor(gen)
	case len(media.Videos) > 0:
		out.Media = transport.MediaVideo
		out.MediaURL = media.Videos[0].URL
		out.Text = captionFor(gen)
	default:
		out.Media = transport.MediaNone
		out.Text = textBodyFor(gen, media.Text)
	}

	return Card{Message: out, ReplyTo: replyTo}
}

func captionFor(gen *protocol.GenerationRecord) safety.SafeText {
	prompt := gen.InputPrompt("")
	if prompt == "" {
		return safety.Raw("")
	}
	return safety.Join(safety.Raw("*"), safety.Escape(gen.ToolDisplayName), safety.Raw("*\n"), safety.Escape(prompt))
}

func textBodyFor(gen *protocol.GenerationRecord, text string) safety.SafeText {
	return safety.Join(safety.Raw("*"), safety.Escape(gen.ToolDisplayName), safety.Raw("*\n"), safety.Escape(text))
}

// RestoreDelivery reconstructs exactly the card Build would produce from
// the stored generation record (§4.6, testable property #6), replying to
// the original command message rather than the sub-menu that was open.
func RestoreDelivery(gen *protocol.GenerationRecord, tweakCount, rerunCount int) Card {
	card := Build(gen, tweakCount, rerunCount)
	if gen.Metadata.TelegramMessageID != 0 {
		card.ReplyTo = gen.Metadata.TelegramMessageID
		card.Message.ReplyTo = gen.Metadata.TelegramMessageID
	}
	return card
}
