package dataapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// GetGeneration fetches a generation record by id. A missing record
// surfaces as an *APIError with Status 404 (checkable via IsNotFound).
func (c *Client) GetGeneration(ctx context.Context, id string) (*protocol.GenerationRecord, error) {
	var rec protocol.GenerationRecord
	if err := c.doJSON(ctx, "GET", "/internal/v1/data/generations/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateGenerationRequest logs a new generation intent ahead of
// submission to the execution endpoint.
type CreateGenerationRequest struct {
	ToolID         string                      `json:"toolId"`
	RequestPayload map[string]any              `json:"requestPayload"`
	SourcePlatform string                      `json:"sourcePlatform"`
	Metadata       protocol.GenerationMetadata `json:"metadata"`
}

// CreateGeneration logs a new generation intent, returning its id.
func (c *Client) CreateGeneration(ctx context.Context, req CreateGenerationRequest) (*protocol.GenerationRecord, error) {
	var rec protocol.GenerationRecord
	if err := c.doJSON(ctx, "POST", "/internal/v1/data/generations", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PatchGenerationRequest carries only the fields being updated.
type PatchGenerationRequest struct {
	Status         protocol.GenerationStatus `json:"status,omitempty"`
	DeliveryStatus protocol.DeliveryStatus   `json:"deliveryStatus,omitempty"`
	StatusReason   string                    `json:"statusReason,omitempty"`
}

// PatchGeneration updates status/metadata fields of an existing record,
// e.g. marking a failed submission with a reason (§7).
func (c *Client) PatchGeneration(ctx context.Context, id string, patch PatchGenerationRequest) error {
	return c.doJSON(ctx, "PUT", "/internal/v1/data/generations/"+url.PathEscape(id), patch, nil)
}

// RateGeneration records a rating by the clicking user's master account.
func (c *Client) RateGeneration(ctx context.Context, id string, kind protocol.RatingKind, masterAccountID string) error {
	body := map[string]string{"masterAccountId": masterAccountID}
	return c.doJSON(ctx, "POST", fmt.Sprintf("/internal/v1/data/generations/rate_gen/%s/%s", url.PathEscape(id), kind), body, nil)
}

// MostFrequentTool is one entry of the usage ranking used to populate the
// settings menu's top-four shortcut (§4.3).
type MostFrequentTool struct {
	ToolID      string `json:"toolId"`
	DisplayName string `json:"displayName"`
	UseCount    int    `json:"useCount"`
}

// MostFrequentTools fetches maid's most-used tools, requesting limit*3 to
// survive tool ids that no longer resolve in the registry.
func (c *Client) MostFrequentTools(ctx context.Context, maid string, limit int) ([]MostFrequentTool, error) {
	path := fmt.Sprintf("/internal/v1/data/generations/users/%s/most-frequent-tools?limit=%d", url.PathEscape(maid), limit*3)
	var resp []MostFrequentTool
	if err := c.doJSON(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
