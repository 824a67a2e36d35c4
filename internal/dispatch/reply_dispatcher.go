package dispatch

import (
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// MessageReplyDispatcher routes a text reply to the handler registered
// for its stored ReplyContext.Type (§4.1). The context is consumed by
// the caller (internal/interaction.ReplyContextStore.Take) before
// Dispatch runs, so a successful dispatch always means exactly one
// consumption.
type MessageReplyDispatcher struct {
	mu       sync.RWMutex
	handlers map[protocol.ReplyContextType]ReplyHandler
	log      *slog.Logger
}

// NewMessageReplyDispatcher builds an empty dispatcher.
func NewMessageReplyDispatcher(log *slog.Logger) *MessageReplyDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &MessageReplyDispatcher{handlers: make(map[protocol.ReplyContextType]ReplyHandler), log: log}
}

// Register binds a ReplyContext type to its handler.
func (d *MessageReplyDispatcher) Register(t protocol.ReplyContextType, handler ReplyHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[t]; exists {
		d.log.Warn("dispatch: overwriting existing reply-context handler", "type", t)
	}
	d.handlers[t] = handler
}

// Dispatch runs the handler registered for reply.Context.Type.
func (d *MessageReplyDispatcher) Dispatch(reply InboundReply) (matched bool, err error) {
	d.mu.RLock()
	handler, ok := d.handlers[reply.Context.Type]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, handler(reply)
}
