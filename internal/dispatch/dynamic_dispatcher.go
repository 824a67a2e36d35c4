package dispatch

import "context"

// DynamicCommandResolver is the external command registry consulted by
// DynamicCommandDispatcher. It is a collaborator, not part of this core:
// the registry itself decides which free-text inputs it wants to claim.
type DynamicCommandResolver interface {
	// TryHandle attempts to resolve text to a tool invocation and run it.
	// matched=false means the registry has nothing for this text and the
	// message should be treated as unhandled.
	TryHandle(ctx context.Context, cmd InboundCommand) (matched bool, err error)
}

// DynamicCommandDispatcher is consulted only when neither the command
// nor the reply-context dispatcher claimed the inbound text message
// (§4.1 ordering).
type DynamicCommandDispatcher struct {
	resolver DynamicCommandResolver
}

// NewDynamicCommandDispatcher wraps resolver. A nil resolver makes
// Dispatch always report no match, so the core runs standalone without
// a natural-language trigger registry configured.
func NewDynamicCommandDispatcher(resolver DynamicCommandResolver) *DynamicCommandDispatcher {
	return &DynamicCommandDispatcher{resolver: resolver}
}

// Dispatch delegates to the resolver, if any.
func (d *DynamicCommandDispatcher) Dispatch(ctx context.Context, cmd InboundCommand) (bool, error) {
	if d.resolver == nil {
		return false, nil
	}
	return d.resolver.TryHandle(ctx, cmd)
}
