// Package composio holds the client adapters for the Composio platform.
//
// Three incompatible generations of the same API surface are in the
// wild: the v3 API (tool slugs are plain strings), the legacy v2 API
// (actions must resolve through a closed enumeration), and a raw HTTP
// envelope accepted by older deployments. Each generation gets its own
// adapter; the discovery resolver and the execution dispatcher try them
// in a fixed priority order and take the first that works. Which
// adapters exist is decided once at construction from the available
// configuration, not per call.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupported marks a call shape the deployment does not implement.
// Callers skip these silently and try the next method or adapter.
var ErrUnsupported = errors.New("composio: unsupported call")

// Config carries connection settings shared by all adapter generations.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Deployment-specific paths for the raw HTTP fallback. The envelope
	// shapes are fixed contracts; the paths are not.
	ToolsPath   string
	ActionsPath string

	// UserID is forwarded on legacy per-user listing calls.
	UserID string
}

// ConfigFromEnv builds a Config from COMPOSIO_* environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:     strings.TrimSpace(os.Getenv("COMPOSIO_BASE_URL")),
		APIKey:      strings.TrimSpace(os.Getenv("COMPOSIO_API_KEY")),
		ToolsPath:   strings.TrimSpace(os.Getenv("COMPOSIO_TOOLS_PATH")),
		ActionsPath: strings.TrimSpace(os.Getenv("COMPOSIO_ACTIONS_PATH")),
		UserID:      strings.TrimSpace(os.Getenv("COMPOSIO_USER_ID")),
		Timeout:     30 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://backend.composio.dev"
	}
	if ms := strings.TrimSpace(os.Getenv("COMPOSIO_TIMEOUT_MS")); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.Timeout = time.Duration(v) * time.Millisecond
		}
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://backend.composio.dev"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ToolsPath == "" {
		c.ToolsPath = "/api/v3/tools"
	}
	if c.ActionsPath == "" {
		c.ActionsPath = "/api/v3/actions"
	}
	if c.UserID == "" {
		c.UserID = "system"
	}
	return c
}

// Clients is the bag of adapters that could be constructed from a Config.
// Fields are nil when their generation's prerequisites are missing.
type Clients struct {
	V3     *V3Client
	Legacy *LegacyClient
	Raw    *RawClient
}

// NewClients performs construction-time feature detection: each adapter
// generation is built only when its prerequisites exist.
func NewClients(cfg Config) Clients {
	cfg = cfg.withDefaults()
	var out Clients
	if cfg.APIKey != "" {
		out.V3 = NewV3Client(cfg)
		out.Legacy = NewLegacyClient(cfg)
		out.Raw = NewRawClient(cfg)
	}
	return out
}

// httpJSON is the shared request plumbing for every adapter generation.
type httpJSON struct {
	baseURL string
	apiKey  string
	c       *http.Client
}

func newHTTPJSON(cfg Config) httpJSON {
	return httpJSON{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		c:       &http.Client{Timeout: cfg.Timeout},
	}
}

// do issues one JSON request and decodes the body. Status codes that
// indicate the endpoint shape is unknown to this deployment (404, 405,
// 501) map to ErrUnsupported so callers can fall through silently.
func (h httpJSON) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", h.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return fmt.Errorf("%w: %s %s (%d)", ErrUnsupported, method, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("composio error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// listPayload is the response wrapper used by every generation's listing
// endpoint; some deployments say "items", others "data".
type listPayload struct {
	Items []any `json:"items"`
	Data  []any `json:"data"`
}

func (p listPayload) entries() []any {
	if len(p.Items) > 0 {
		return p.Items
	}
	return p.Data
}
