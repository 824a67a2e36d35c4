// Package transport defines the generic chat-transport interface the
// dispatch core drives: send/edit/delete over text, photo, animation,
// and video, plus inline-keyboard callback acknowledgement. Telegram and
// Discord adapters (internal/transport/telegram, internal/transport/discord)
// implement it; the rest of the core never imports a platform SDK directly.
package transport

import (
	"context"

	"github.com/nextlevelbuilder/forgebot/internal/safety"
)

// InlineButton is one button of an inline keyboard row.
type InlineButton struct {
	Text         string
	CallbackData string
}

// InlineKeyboard is a grid of buttons, rendered row by row.
type InlineKeyboard [][]InlineButton

// MediaKind selects which media field of OutgoingMessage is populated.
type MediaKind string

const (
	MediaNone      MediaKind = ""
	MediaPhoto     MediaKind = "photo"
	MediaAnimation MediaKind = "animation"
	MediaVideo     MediaKind = "video"
)

// OutgoingMessage is a platform-agnostic description of a message to
// send or a replacement for an edit. Text must already be escaped
// (safety.SafeText) before it reaches a transport.
type OutgoingMessage struct {
	ChatID   string
	ReplyTo  int
	Text     safety.SafeText
	Media    MediaKind
	MediaURL string
	Keyboard InlineKeyboard
}

// SentMessage identifies a message that now exists on the platform.
type SentMessage struct {
	ChatID    string
	MessageID int
}

// EditError is returned by Edit when the platform rejects the edit
// outright (message too old, chat access lost) rather than failing on
// a transient network error. Callers fall back to sending a new message
// per §7 ("specifically caught and re-attempted as a new message").
type EditError struct {
	Err          error
	NotEditable  bool
}

func (e *EditError) Error() string { return e.Err.Error() }
func (e *EditError) Unwrap() error { return e.Err }

// Transport is the generic send/edit/delete surface the dispatch core
// drives. Implementations must be safe for concurrent use.
type Transport interface {
	// Name identifies the platform, e.g. "telegram" or "discord".
	Name() string

	// Send delivers msg as a new message and returns its identity.
	Send(ctx context.Context, msg OutgoingMessage) (SentMessage, error)

	// EditText replaces the text and keyboard of an existing message.
	EditText(ctx context.Context, chatID string, messageID int, text safety.SafeText, keyboard InlineKeyboard) error

	// EditKeyboard replaces only the inline keyboard of an existing
	// message, used by hide_menu and counter-button updates.
	EditKeyboard(ctx context.Context, chatID string, messageID int, keyboard InlineKeyboard) error

	// Delete removes a message. Deleting an already-deleted message is
	// not an error.
	Delete(ctx context.Context, chatID string, messageID int) error

	// AnswerCallback acknowledges an inline-button press, optionally
	// showing a short ephemeral alert (e.g. "This menu isn't for you").
	AnswerCallback(ctx context.Context, callbackQueryID string, alertText string, showAlert bool) error
}
