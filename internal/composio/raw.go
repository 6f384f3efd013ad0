package composio

import (
	"context"
	"fmt"
	"net/url"
)

// RawClient is the low-level HTTP handle of last resort. The paths it
// posts to are deployment configuration; the envelope shapes are fixed:
// discovery is GET <tools-path>?toolkit_slug=<toolkit>, execution is
// POST <actions-path> with {"action": <id>, "params": <mapping>}.
type RawClient struct {
	httpJSON
	toolsPath   string
	actionsPath string
}

// NewRawClient builds the raw HTTP fallback adapter.
func NewRawClient(cfg Config) *RawClient {
	cfg = cfg.withDefaults()
	return &RawClient{
		httpJSON:    newHTTPJSON(cfg),
		toolsPath:   cfg.ToolsPath,
		actionsPath: cfg.ActionsPath,
	}
}

// Name identifies the adapter in logs and attempt records.
func (c *RawClient) Name() string { return "composio_http" }

// ListTools fetches raw tool descriptions straight off the tools
// endpoint, bypassing any SDK surface.
func (c *RawClient) ListTools(ctx context.Context, toolkit string) ([]any, error) {
	var payload listPayload
	q := url.Values{"toolkit_slug": {toolkit}}
	if err := c.do(ctx, "GET", c.toolsPath, q, nil, &payload); err != nil {
		return nil, fmt.Errorf("http tools list for %s: %w", toolkit, err)
	}
	return payload.entries(), nil
}

type rawEnvelope struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Execute posts the fixed {"action", "params"} envelope to the actions
// endpoint and passes the response through untouched.
func (c *RawClient) Execute(ctx context.Context, action string, params map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, "POST", c.actionsPath, nil, rawEnvelope{Action: action, Params: params}, &out); err != nil {
		return nil, fmt.Errorf("http execute %s: %w", action, err)
	}
	return out, nil
}
