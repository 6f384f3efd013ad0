package composio

import (
	"context"
	"fmt"
	"net/url"
)

// V3Client talks to the newest generation of the platform API. Tool
// slugs are used directly as raw string identifiers; no enumeration is
// involved.
type V3Client struct {
	httpJSON
}

// NewV3Client builds the v3 adapter.
func NewV3Client(cfg Config) *V3Client {
	return &V3Client{httpJSON: newHTTPJSON(cfg.withDefaults())}
}

// Name identifies the adapter in logs and attempt records.
func (c *V3Client) Name() string { return "composio_v3" }

// ListTools fetches the raw tool descriptions of one toolkit.
func (c *V3Client) ListTools(ctx context.Context, toolkit string) ([]any, error) {
	var payload listPayload
	q := url.Values{"toolkit_slug": {toolkit}}
	if err := c.do(ctx, "GET", "/api/v3/tools", q, nil, &payload); err != nil {
		return nil, fmt.Errorf("v3 tools list for %s: %w", toolkit, err)
	}
	return payload.entries(), nil
}

type v3ExecuteBody struct {
	Arguments          map[string]any `json:"arguments,omitempty"`
	ConnectedAccountID string         `json:"connected_account_id,omitempty"`
	UserID             string         `json:"user_id,omitempty"`
	AllowTracing       *bool          `json:"allow_tracing,omitempty"`
}

// Execute invokes one tool by slug. The reserved call fields travel in
// dedicated body fields, never inside the generic argument mapping; the
// backend rejects envelopes that merge them.
func (c *V3Client) Execute(ctx context.Context, slug string, arguments map[string]any, connectedAccountID, userID string, allowTracing *bool) (map[string]any, error) {
	body := v3ExecuteBody{
		Arguments:          arguments,
		ConnectedAccountID: connectedAccountID,
		UserID:             userID,
		AllowTracing:       allowTracing,
	}
	var out map[string]any
	if err := c.do(ctx, "POST", "/api/v3/tools/execute/"+url.PathEscape(slug), nil, body, &out); err != nil {
		return nil, fmt.Errorf("v3 execute %s: %w", slug, err)
	}
	return out, nil
}
