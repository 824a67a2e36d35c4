package dataapi

import "context"

// Event is an append-only audit record, e.g. "tweak_submitted",
// "rerun_clicked". Posting is always best-effort: callers must not treat
// a failure here as fatal to the handler (§7).
type Event struct {
	Type            string         `json:"type"`
	MasterAccountID string         `json:"masterAccountId,omitempty"`
	GenerationID    string         `json:"generationId,omitempty"`
	Payload         map[string]any `json:"payload,omitempty"`
}

// PostEvent appends an event. Callers in this codebase should route
// through internal/eventlog rather than calling this directly, so a
// transient data-API outage still gets the event delivered eventually.
func (c *Client) PostEvent(ctx context.Context, ev Event) error {
	return c.doJSON(ctx, "POST", "/internal/v1/data/events", ev, nil)
}
