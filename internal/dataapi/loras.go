package dataapi

import (
	"fmt"
	"net/url"

	"context"
)

// LoraSummary is one entry of a lora listing page.
type LoraSummary struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	CheckpointTag string `json:"checkpointTag"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`
}

// LoraDetail is the full record for a single lora, shown in the browser
// detail view.
type LoraDetail struct {
	LoraSummary
	Description string `json:"description,omitempty"`
	ExampleURLs []string `json:"exampleUrls,omitempty"`
}

// ListLorasParams narrows a lora listing to one category/checkpoint/page.
type ListLorasParams struct {
	Category   string
	Checkpoint string
	Page       int
	PageSize   int
}

// ListLoras fetches one page of the lora browser (§4.9).
func (c *Client) ListLoras(ctx context.Context, p ListLorasParams) ([]LoraSummary, error) {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Checkpoint != "" && p.Checkpoint != "All" {
		q.Set("checkpoint", p.Checkpoint)
	}
	if p.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", fmt.Sprintf("%d", p.PageSize))
	}
	path := "/internal/v1/data/loras/list"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var resp []LoraSummary
	if err := c.doJSON(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetLora fetches one lora by id or slug, used by the detail view and by
// the slug-to-id resolution step of the favorite toggle.
func (c *Client) GetLora(ctx context.Context, idOrSlug string) (*LoraDetail, error) {
	var resp LoraDetail
	if err := c.doJSON(ctx, "GET", "/internal/v1/data/loras/"+url.PathEscape(idOrSlug), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
