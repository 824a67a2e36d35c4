package dispatch

import (
	"log/slog"
	"regexp"
	"sync"
)

type commandRoute struct {
	pattern *regexp.Regexp
	handler CommandHandler
}

// CommandDispatcher routes "/command ..." text messages by regex, first
// match wins (§4.1).
type CommandDispatcher struct {
	mu     sync.RWMutex
	routes []commandRoute
	log    *slog.Logger
}

// NewCommandDispatcher builds an empty dispatcher.
func NewCommandDispatcher(log *slog.Logger) *CommandDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &CommandDispatcher{log: log}
}

// Register binds pattern to handler. Patterns are tried in registration
// order; a later, broader pattern can still shadow an earlier narrower
// one, so register specific commands before catch-alls.
func (d *CommandDispatcher) Register(pattern string, handler CommandHandler) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes = append(d.routes, commandRoute{pattern: re, handler: handler})
	return nil
}

// Dispatch finds the first matching route for cmd.Command and runs it.
// Returns false if nothing matched, signaling the caller to fall through
// to the next dispatcher in the chain.
func (d *CommandDispatcher) Dispatch(cmd InboundCommand) (matched bool, err error) {
	d.mu.RLock()
	routes := d.routes
	d.mu.RUnlock()

	for _, r := range routes {
		if r.pattern.MatchString(cmd.Command) {
			return true, r.handler(cmd)
		}
	}
	return false, nil
}
