// Package dispatch is the inbound event router (C4): it turns a platform
// update into one of three typed events and routes each to the handler
// family registered for it, enforcing authorization along the way.
package dispatch

import (
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// InboundCommand is a text message starting with "/".
type InboundCommand struct {
	Platform        string
	ChatID          string
	MessageID       int
	ThreadID        int
	IsGroup         bool
	SenderPlatformID string
	SenderUsername  string
	MasterAccountID string
	Command         string // lowercased, "@botname" suffix stripped
	Args            string
}

// InboundCallback is an inline-button press.
type InboundCallback struct {
	Platform          string
	ChatID            string
	MessageID         int
	CallbackQueryID   string
	Data              string
	SenderPlatformID  string
	SenderUsername    string
	MasterAccountID   string
	IsGroup           bool
	RepliedFromUserID string // platform id of the user who received the original command's delivery, if known
}

// InboundReply is a free-text message sent as a reply to one of the
// bot's own prompt messages.
type InboundReply struct {
	Platform        string
	ChatID          string
	MessageID       int
	ReplyToMessageID int
	SenderPlatformID string
	MasterAccountID string
	Text            string
	Context         protocol.ReplyContext
}

// CommandHandler handles one matched command.
type CommandHandler func(InboundCommand) error

// CallbackHandler handles one matched callback-query prefix.
type CallbackHandler func(InboundCallback) error

// ReplyHandler handles one matched reply-context type.
type ReplyHandler func(InboundReply) error
