package dispatch

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

type callbackRoute struct {
	prefix  string
	handler CallbackHandler
}

// CallbackQueryDispatcher routes inline-button presses by string prefix,
// linear scan, first startsWith match wins (§4.1). Re-registering an
// existing prefix logs a warning and overwrites the previous handler.
type CallbackQueryDispatcher struct {
	mu     sync.RWMutex
	routes []callbackRoute
	log    *slog.Logger
}

// NewCallbackQueryDispatcher builds an empty dispatcher.
func NewCallbackQueryDispatcher(log *slog.Logger) *CallbackQueryDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &CallbackQueryDispatcher{log: log}
}

// Register binds prefix to handler.
func (d *CallbackQueryDispatcher) Register(prefix string, handler CallbackHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.routes {
		if r.prefix == prefix {
			d.log.Warn("dispatch: overwriting existing callback prefix registration", "prefix", prefix)
			d.routes[i].handler = handler
			return
		}
	}
	d.routes = append(d.routes, callbackRoute{prefix: prefix, handler: handler})
}

// AuthDenied is returned by Dispatch when the press failed the §4.2
// authorization rule. The caller must acknowledge the callback with an
// ephemeral "This menu isn't for you" alert and make no state change.
var authDeniedSentinel = &authDeniedError{}

type authDeniedError struct{}

func (*authDeniedError) Error() string { return "dispatch: caller is not authorized for this interaction" }

// IsAuthDenied reports whether err is the authorization-denied sentinel.
func IsAuthDenied(err error) bool { return err == authDeniedSentinel }

// authorize enforces §4.2: only the original commander may act on an
// inline button, except rate_gen:* in a group/supergroup, which is open
// to any member.
func authorize(cb InboundCallback) bool {
	if cb.RepliedFromUserID == "" {
		return true // no original commander on record, e.g. a standalone menu message
	}
	if cb.RepliedFromUserID == cb.SenderPlatformID {
		return true
	}
	if cb.IsGroup && strings.HasPrefix(cb.Data, protocol.PrefixRateGen) {
		return true
	}
	return false
}

// Dispatch finds the first matching prefix route for cb.Data, enforces
// authorization, and runs the handler. Returns false if nothing matched.
func (d *CallbackQueryDispatcher) Dispatch(cb InboundCallback) (matched bool, err error) {
	d.mu.RLock()
	routes := d.routes
	d.mu.RUnlock()

	for _, r := range routes {
		if strings.HasPrefix(cb.Data, r.prefix) {
			if !authorize(cb) {
				return true, authDeniedSentinel
			}
			return true, r.handler(cb)
		}
	}
	return false, nil
}
