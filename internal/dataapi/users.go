package dataapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// FindOrCreateRequest identifies a platform user for identity resolution.
type FindOrCreateRequest struct {
	Platform        string                   `json:"platform"`
	PlatformID      string                   `json:"platformId"`
	PlatformContext *protocol.PlatformContext `json:"platformContext,omitempty"`
}

// FindOrCreateResponse is the resolved internal identity.
type FindOrCreateResponse struct {
	MasterAccountID string `json:"masterAccountId"`
	IsNewUser       bool   `json:"isNewUser"`
}

// FindOrCreateUser resolves (platform, platformId) to a masterAccountId,
// creating the account on first sight. Idempotent per invariant #1.
func (c *Client) FindOrCreateUser(ctx context.Context, req FindOrCreateRequest) (*FindOrCreateResponse, error) {
	var resp FindOrCreateResponse
	if err := c.doJSON(ctx, "POST", "/internal/v1/data/users/find-or-create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatusReport is the dashboard summary for a user.
type StatusReport struct {
	Points        int      `json:"points"`
	Exp           int      `json:"exp"`
	WalletAddress string   `json:"walletAddress,omitempty"`
	LiveTasks     []string `json:"liveTasks,omitempty"`
}

// StatusReport fetches the dashboard summary for maid.
func (c *Client) StatusReport(ctx context.Context, maid string) (*StatusReport, error) {
	var resp StatusReport
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/internal/v1/data/users/%s/status-report", url.PathEscape(maid)), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Wallet is a single linked chain address.
type Wallet struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
}

// Wallets lists wallets linked to maid.
func (c *Client) Wallets(ctx context.Context, maid string) ([]Wallet, error) {
	var resp []Wallet
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/internal/v1/data/users/%s/wallets", url.PathEscape(maid)), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Preference is one stored tool-parameter preference value.
type Preference struct {
	ToolDisplayName string `json:"toolDisplayName"`
	ParamName       string `json:"paramName"`
	Value           any    `json:"value"`
}

// Preferences fetches every stored preference for a tool.
func (c *Client) Preferences(ctx context.Context, maid, toolDisplayName string) ([]Preference, error) {
	var resp []Preference
	path := fmt.Sprintf("/internal/v1/data/users/%s/preferences/%s", url.PathEscape(maid), url.PathEscape(toolDisplayName))
	if err := c.doJSON(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SetPreference upserts a single parameter preference.
func (c *Client) SetPreference(ctx context.Context, maid, toolDisplayName, paramName string, value any) error {
	path := fmt.Sprintf("/internal/v1/data/users/%s/preferences/%s", url.PathEscape(maid), url.PathEscape(toolDisplayName))
	body := map[string]any{"paramName": paramName, "value": value}
	return c.doJSON(ctx, "POST", path, body, nil)
}

// DeletePreference removes a stored preference, e.g. on reset.
func (c *Client) DeletePreference(ctx context.Context, maid, toolDisplayName, paramName string) error {
	path := fmt.Sprintf("/internal/v1/data/users/%s/preferences/%s/%s", url.PathEscape(maid), url.PathEscape(toolDisplayName), url.PathEscape(paramName))
	return c.doJSON(ctx, "DELETE", path, nil, nil)
}

// LoraFavoriteAction toggles favorite status for a lora, used by the
// two-round-trip favorite flow in the lora browser (§4.9).
func (c *Client) LoraFavoriteAction(ctx context.Context, maid, loraID string, add bool) error {
	path := fmt.Sprintf("/internal/v1/data/users/%s/preferences/lora-favorites/%s", url.PathEscape(maid), url.PathEscape(loraID))
	if add {
		return c.doJSON(ctx, "POST", path, nil, nil)
	}
	return c.doJSON(ctx, "DELETE", path, nil, nil)
}

// MagicAmountResponse is returned when a wallet link is initiated via
// deposit verification.
type MagicAmountResponse struct {
	MagicAmountWei string `json:"magicAmountWei"`
	ExpiresAt      string `json:"expiresAt"`
	RequestID      string `json:"requestId"`
}

// RequestMagicAmount initiates the magic-amount wallet-link flow for maid
// on chainID, sent to the foundation deposit address.
func (c *Client) RequestMagicAmount(ctx context.Context, maid string, chainID int64) (*MagicAmountResponse, error) {
	path := fmt.Sprintf("/internal/v1/data/users/%s/wallets/requests/magic-amount", url.PathEscape(maid))
	var resp MagicAmountResponse
	if err := c.doJSON(ctx, "POST", path, map[string]any{"chainId": chainID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlatformLinkRequest asks to merge the calling platform identity into an
// existing account by wallet ownership.
type PlatformLinkRequest struct {
	MasterAccountID string `json:"masterAccountId"`
	WalletAddress   string `json:"walletAddress"`
	Platform        string `json:"platform"`
	PlatformID      string `json:"platformId"`
}

// PlatformLinkRequestResponse carries the new request's id for tracking.
type PlatformLinkRequestResponse struct {
	RequestID string `json:"requestId"`
}

// RequestPlatformLink initiates a cross-platform account merge. A 409
// response means a pending request already exists (§4.8) and is returned
// as-is for the caller to detect with IsConflict.
func (c *Client) RequestPlatformLink(ctx context.Context, req PlatformLinkRequest) (*PlatformLinkRequestResponse, error) {
	var resp PlatformLinkRequestResponse
	if err := c.doJSON(ctx, "POST", "/internal/v1/data/users/request-platform-link", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LinkRequestAction is one of approve, reject, report.
type LinkRequestAction string

const (
	LinkActionApprove LinkRequestAction = "approve"
	LinkActionReject  LinkRequestAction = "reject"
	LinkActionReport  LinkRequestAction = "report"
)

// LinkRequestResult reports whether the report action crossed the API's
// automatic-ban threshold.
type LinkRequestResult struct {
	Banned bool `json:"banned,omitempty"`
}

// ResolveLinkRequest approves, rejects, or reports a pending link request.
func (c *Client) ResolveLinkRequest(ctx context.Context, requestID string, action LinkRequestAction) (*LinkRequestResult, error) {
	path := fmt.Sprintf("/internal/v1/data/users/link-requests/%s/%s", url.PathEscape(requestID), action)
	var resp LinkRequestResult
	if err := c.doJSON(ctx, "POST", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
