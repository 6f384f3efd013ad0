package composio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{BaseURL: url, APIKey: "test-key", Timeout: 5 * time.Second}
}

func TestNewClientsFeatureDetection(t *testing.T) {
	t.Run("api key present builds all generations", func(t *testing.T) {
		clients := NewClients(Config{APIKey: "k"})
		assert.NotNil(t, clients.V3)
		assert.NotNil(t, clients.Legacy)
		assert.NotNil(t, clients.Raw)
	})

	t.Run("missing api key builds nothing", func(t *testing.T) {
		clients := NewClients(Config{})
		assert.Nil(t, clients.V3)
		assert.Nil(t, clients.Legacy)
		assert.Nil(t, clients.Raw)
	})
}

func TestHTTPJSONStatusMapping(t *testing.T) {
	for _, tc := range []struct {
		name        string
		status      int
		unsupported bool
	}{
		{"not found", http.StatusNotFound, true},
		{"method not allowed", http.StatusMethodNotAllowed, true},
		{"not implemented", http.StatusNotImplemented, true},
		{"server error", http.StatusInternalServerError, false},
		{"unauthorized", http.StatusUnauthorized, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			h := newHTTPJSON(testConfig(srv.URL))
			err := h.do(context.Background(), "GET", "/whatever", nil, nil, nil)
			require.Error(t, err)
			assert.Equal(t, tc.unsupported, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestHTTPJSONSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	h := newHTTPJSON(testConfig(srv.URL))
	require.NoError(t, h.do(context.Background(), "GET", "/", nil, nil, nil))
	assert.Equal(t, "test-key", gotKey)
}

func TestV3ListTools(t *testing.T) {
	t.Run("items wrapper", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/tools", r.URL.Path)
			assert.Equal(t, "gmail", r.URL.Query().Get("toolkit_slug"))
			w.Write([]byte(`{"items": [{"slug": "GMAIL_SEND_EMAIL"}]}`))
		}))
		defer srv.Close()

		items, err := NewV3Client(testConfig(srv.URL)).ListTools(context.Background(), "gmail")
		require.NoError(t, err)
		require.Len(t, items, 1)
	})

	t.Run("data wrapper", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": [{"slug": "A"}, {"slug": "B"}]}`))
		}))
		defer srv.Close()

		items, err := NewV3Client(testConfig(srv.URL)).ListTools(context.Background(), "gmail")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestV3ExecuteBodyShape(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/tools/execute/GMAIL_SEND_EMAIL", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"successful": true}`))
	}))
	defer srv.Close()

	tracing := true
	out, err := NewV3Client(testConfig(srv.URL)).Execute(context.Background(),
		"GMAIL_SEND_EMAIL",
		map[string]any{"subject": "hi"},
		"acct-1", "user-1", &tracing)
	require.NoError(t, err)
	assert.Equal(t, true, out["successful"])

	// Reserved call fields ride in dedicated body fields, never inside
	// the argument mapping.
	assert.Equal(t, map[string]any{"subject": "hi"}, body["arguments"])
	assert.Equal(t, "acct-1", body["connected_account_id"])
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, true, body["allow_tracing"])
}

func TestLegacyAction(t *testing.T) {
	enum, ok := LegacyAction("gmail_send_email")
	require.True(t, ok)
	assert.Equal(t, "gmail_send_email", enum)

	_, ok = LegacyAction("UNKNOWN_ACTION")
	assert.False(t, ok)
}

func TestLegacyListToolsProbesMethods(t *testing.T) {
	t.Run("bulk list wins when populated", func(t *testing.T) {
		var calls []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, r.URL.RawQuery)
			w.Write([]byte(`{"items": [{"name": "GMAIL_SEND_EMAIL"}]}`))
		}))
		defer srv.Close()

		items, err := NewLegacyClient(testConfig(srv.URL)).ListTools(context.Background(), "gmail")
		require.NoError(t, err)
		assert.Len(t, items, 1)
		require.Len(t, calls, 1)
		assert.NotContains(t, calls[0], "user_uuid")
	})

	t.Run("falls through to per-user variant", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("user_uuid") == "" {
				w.Write([]byte(`{"items": []}`))
				return
			}
			w.Write([]byte(`{"items": [{"name": "GMAIL_SEND_EMAIL"}]}`))
		}))
		defer srv.Close()

		items, err := NewLegacyClient(testConfig(srv.URL)).ListTools(context.Background(), "gmail")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("unsupported deployment yields empty without error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		items, err := NewLegacyClient(testConfig(srv.URL)).ListTools(context.Background(), "gmail")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("real failures surface when every method fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewLegacyClient(testConfig(srv.URL)).ListTools(context.Background(), "gmail")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "legacy tools list for gmail")
	})
}

func TestLegacyExecute(t *testing.T) {
	t.Run("resolves enum and posts input", func(t *testing.T) {
		var body map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v2/actions/gmail_send_email/execute", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer srv.Close()

		out, err := NewLegacyClient(testConfig(srv.URL)).Execute(context.Background(),
			"GMAIL_SEND_EMAIL", map[string]any{"subject": "hi"}, "acct-1", true)
		require.NoError(t, err)
		assert.Equal(t, "ok", out["status"])
		assert.Equal(t, map[string]any{"subject": "hi"}, body["input"])
		assert.Equal(t, "acct-1", body["connectedAccountId"])
		assert.Equal(t, true, body["allowTracing"])
	})

	t.Run("rejects identifiers outside the enumeration", func(t *testing.T) {
		_, err := NewLegacyClient(testConfig("http://unused")).Execute(context.Background(),
			"UNKNOWN_ACTION", nil, "", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "legacy enumeration missing")
	})
}

func TestRawClient(t *testing.T) {
	t.Run("list uses configured tools path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/custom/tools", r.URL.Path)
			assert.Equal(t, "slack", r.URL.Query().Get("toolkit_slug"))
			w.Write([]byte(`{"items": [{"slug": "SLACK_POST_MESSAGE"}]}`))
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.ToolsPath = "/custom/tools"
		items, err := NewRawClient(cfg).ListTools(context.Background(), "slack")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("execute posts the fixed envelope", func(t *testing.T) {
		var body map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/custom/actions", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Write([]byte(`{"done": true}`))
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.ActionsPath = "/custom/actions"
		out, err := NewRawClient(cfg).Execute(context.Background(),
			"SLACK_POST_MESSAGE", map[string]any{"text": "hi"})
		require.NoError(t, err)
		assert.Equal(t, true, out["done"])
		assert.Equal(t, "SLACK_POST_MESSAGE", body["action"])
		assert.Equal(t, map[string]any{"text": "hi"}, body["params"])
	})
}
