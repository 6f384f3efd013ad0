package composio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// legacyActions is the closed enumeration the legacy v2 API requires.
// Identifiers unknown to this table cannot be executed through the
// legacy adapter at all; the dispatcher skips the strategy entirely.
var legacyActions = map[string]string{
	"GMAIL_SEND_EMAIL":                        "gmail_send_email",
	"GMAIL_CREATE_EMAIL_DRAFT":                "gmail_create_email_draft",
	"SLACK_SEND_MESSAGE":                      "slack_send_message",
	"SLACK_POST_MESSAGE":                      "slack_post_message",
	"SLACK_SENDS_A_MESSAGE_TO_A_SLACK_CHANNEL": "slack_sends_a_message_to_a_slack_channel",
	"GOOGLESHEETS_SPREADSHEETS_VALUES_APPEND": "googlesheets_spreadsheets_values_append",
	"GOOGLESHEETS_BATCH_UPDATE":               "googlesheets_batch_update",
	"GOOGLEDOCS_CREATE_DOCUMENT":              "googledocs_create_document",
	"SERPAPI_SEARCH":                          "serpapi_search",
	"ALPHA_VANTAGE_TIME_SERIES_DAILY":         "alpha_vantage_time_series_daily",
}

// LegacyAction resolves an action slug against the legacy enumeration.
func LegacyAction(slug string) (string, bool) {
	name, ok := legacyActions[strings.ToUpper(slug)]
	return name, ok
}

// LegacyClient talks to the previous SDK generation (the v2 API). Its
// listing surface grew organically, so discovery probes more than one
// method shape.
type LegacyClient struct {
	httpJSON
	userID string
}

// NewLegacyClient builds the legacy adapter.
func NewLegacyClient(cfg Config) *LegacyClient {
	cfg = cfg.withDefaults()
	return &LegacyClient{httpJSON: newHTTPJSON(cfg), userID: cfg.UserID}
}

// Name identifies the adapter in logs and attempt records.
func (c *LegacyClient) Name() string { return "composio_legacy" }

// ListTools probes the legacy listing methods in preference order: the
// bulk list first, then the per-user variant. A method the deployment
// does not implement (ErrUnsupported) is skipped silently; other errors
// are kept and surface only when every method fails.
func (c *LegacyClient) ListTools(ctx context.Context, toolkit string) ([]any, error) {
	var failures []error
	for _, list := range []func(context.Context, string) ([]any, error){
		c.listBulk,
		c.listForUser,
	} {
		items, err := list(ctx, toolkit)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			failures = append(failures, err)
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	if len(failures) > 0 {
		return nil, fmt.Errorf("legacy tools list for %s: %w", toolkit, errors.Join(failures...))
	}
	return nil, nil
}

func (c *LegacyClient) listBulk(ctx context.Context, toolkit string) ([]any, error) {
	var payload listPayload
	q := url.Values{"appNames": {toolkit}}
	if err := c.do(ctx, "GET", "/api/v2/actions", q, nil, &payload); err != nil {
		return nil, err
	}
	return payload.entries(), nil
}

func (c *LegacyClient) listForUser(ctx context.Context, toolkit string) ([]any, error) {
	var payload listPayload
	q := url.Values{"appNames": {toolkit}, "user_uuid": {c.userID}}
	if err := c.do(ctx, "GET", "/api/v2/actions", q, nil, &payload); err != nil {
		return nil, err
	}
	return payload.entries(), nil
}

type legacyExecuteBody struct {
	Input              map[string]any `json:"input"`
	ConnectedAccountID string         `json:"connectedAccountId,omitempty"`
	AllowTracing       bool           `json:"allowTracing"`
}

// Execute runs an action through the v2 execution endpoint. The slug
// must already have been resolved through LegacyAction; Execute returns
// an error for identifiers outside the enumeration.
func (c *LegacyClient) Execute(ctx context.Context, slug string, input map[string]any, connectedAccountID string, allowTracing bool) (map[string]any, error) {
	enum, ok := LegacyAction(slug)
	if !ok {
		return nil, fmt.Errorf("legacy enumeration missing for %s", slug)
	}
	body := legacyExecuteBody{
		Input:              input,
		ConnectedAccountID: connectedAccountID,
		AllowTracing:       allowTracing,
	}
	var out map[string]any
	if err := c.do(ctx, "POST", "/api/v2/actions/"+url.PathEscape(enum)+"/execute", nil, body, &out); err != nil {
		return nil, fmt.Errorf("legacy execute %s: %w", slug, err)
	}
	return out, nil
}
