package dataapi

import (
	"context"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// ExecuteRequest is the centralized job-dispatch payload. Inputs must
// already be filtered through ToolDefinition.FilterKnownInputs.
type ExecuteRequest struct {
	ToolID   string                      `json:"toolId"`
	Inputs   map[string]any              `json:"inputs"`
	User     string                      `json:"user"`
	EventID  string                      `json:"eventId"`
	Metadata protocol.GenerationMetadata `json:"metadata"`
}

// ExecuteResponse is returned immediately; the generation itself
// completes asynchronously and is delivered via the notifier (C6).
type ExecuteResponse struct {
	GenerationID string `json:"generationId"`
	RunID        string `json:"runId"`
}

// Execute submits a derived or fresh generation job to the execution
// service. This is the sole write path used by the tweak and rerun
// dispatchers (C7).
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	var resp ExecuteResponse
	if err := c.doJSON(ctx, "POST", "/internal/v1/data/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
