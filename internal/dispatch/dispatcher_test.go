package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/toolbridge/internal/composio"
)

// fakeStrategy scripts one execution response and records the call it saw.
type fakeStrategy struct {
	name    string
	result  map[string]any
	err     error
	calls   int
	lastAct string
	last    ActionCall
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Execute(_ context.Context, action string, call ActionCall) (map[string]any, error) {
	s.calls++
	s.lastAct = action
	s.last = call
	return s.result, s.err
}

func TestSplitParams(t *testing.T) {
	params := map[string]any{
		"subject":              "Quarterly report",
		"connected_account_id": "acct-1",
		"user_id":              "user-1",
		"allow_tracing":        true,
	}
	call := SplitParams(params)

	assert.Equal(t, map[string]any{"subject": "Quarterly report"}, call.Arguments)
	assert.Equal(t, "acct-1", call.ConnectedAccountID)
	assert.Equal(t, "user-1", call.UserID)
	require.NotNil(t, call.AllowTracing)
	assert.True(t, *call.AllowTracing)

	// The caller's map is left alone.
	assert.Len(t, params, 4)
}

func TestSplitParamsIgnoresWrongTypes(t *testing.T) {
	call := SplitParams(map[string]any{
		"connected_account_id": 42,
		"allow_tracing":        "yes",
	})
	assert.Empty(t, call.ConnectedAccountID)
	assert.Nil(t, call.AllowTracing)
	assert.Empty(t, call.Arguments)
}

func TestExecuteFirstSuccessWins(t *testing.T) {
	first := &fakeStrategy{name: "a", result: map[string]any{"ok": true}}
	second := &fakeStrategy{name: "b", result: map[string]any{"ok": "never"}}

	d := NewDispatcher([]Strategy{first, second})
	out := d.Execute(context.Background(), "GMAIL_SEND_EMAIL", nil)

	require.True(t, out.OK())
	assert.Equal(t, map[string]any{"ok": true}, out.Data)
	assert.Empty(t, out.Attempts)
	assert.Equal(t, 0, second.calls)
}

func TestExecuteFallsThroughFailures(t *testing.T) {
	failing := &fakeStrategy{name: "a", err: errors.New("connection refused")}
	working := &fakeStrategy{name: "b", result: map[string]any{"ok": true}}

	d := NewDispatcher([]Strategy{failing, working})
	out := d.Execute(context.Background(), "GMAIL_SEND_EMAIL", nil)

	require.True(t, out.OK())
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, "a", out.Attempts[0].Strategy)
	assert.Equal(t, "connection refused", out.Attempts[0].Error)
	assert.False(t, out.Attempts[0].Skipped)
}

// A strategy that answers without a call-level error is final, even when
// the payload itself encodes an application-level failure.
func TestExecutePayloadErrorIsFinal(t *testing.T) {
	appError := &fakeStrategy{name: "a", result: map[string]any{"error": "quota exceeded"}}
	fallback := &fakeStrategy{name: "b", result: map[string]any{"ok": true}}

	d := NewDispatcher([]Strategy{appError, fallback})
	out := d.Execute(context.Background(), "GMAIL_SEND_EMAIL", nil)

	require.True(t, out.OK())
	assert.Equal(t, "quota exceeded", out.Data["error"])
	assert.Equal(t, 0, fallback.calls)
}

func TestExecuteTerminalErrors(t *testing.T) {
	t.Run("no strategies", func(t *testing.T) {
		out := NewDispatcher(nil).Execute(context.Background(), "GMAIL_SEND_EMAIL", nil)
		require.False(t, out.OK())
		assert.Equal(t, ErrClientUnavailable, out.Err)
		assert.Equal(t, map[string]any{"error": ErrClientUnavailable}, out.AsMap())
	})

	t.Run("terminal skip reports its code", func(t *testing.T) {
		skipped := &fakeStrategy{name: "legacy", err: &SkipError{Code: ErrLegacyActionNotFound}}
		out := NewDispatcher([]Strategy{skipped}).Execute(context.Background(), "UNKNOWN_ACTION", nil)

		require.False(t, out.OK())
		assert.Equal(t, ErrLegacyActionNotFound, out.Err)
		require.Len(t, out.Attempts, 1)
		assert.True(t, out.Attempts[0].Skipped)
	})

	t.Run("last failure message is terminal", func(t *testing.T) {
		d := NewDispatcher([]Strategy{
			&fakeStrategy{name: "a", err: errors.New("first down")},
			&fakeStrategy{name: "b", err: errors.New("second down")},
		})
		out := d.Execute(context.Background(), "GMAIL_SEND_EMAIL", nil)

		require.False(t, out.OK())
		assert.Equal(t, "second down", out.Err)
		assert.Len(t, out.Attempts, 2)
	})
}

// Every strategy receives the reserved call fields out-of-band, never
// inside the argument mapping.
func TestExecuteStripsReservedKeys(t *testing.T) {
	s := &fakeStrategy{name: "a", result: map[string]any{}}
	d := NewDispatcher([]Strategy{s})

	d.Execute(context.Background(), "SLACK_POST_MESSAGE", map[string]any{
		"text":                 "hello",
		"connected_account_id": "acct-1",
		"user_id":              "user-1",
	})

	assert.Equal(t, "SLACK_POST_MESSAGE", s.lastAct)
	assert.Equal(t, map[string]any{"text": "hello"}, s.last.Arguments)
	assert.Equal(t, "acct-1", s.last.ConnectedAccountID)
	assert.Equal(t, "user-1", s.last.UserID)
}

func TestNewStrategiesOrder(t *testing.T) {
	t.Run("full client bag", func(t *testing.T) {
		clients := composio.NewClients(composio.Config{APIKey: "k"})
		strategies := NewStrategies(clients)

		require.Len(t, strategies, 3)
		assert.Equal(t, "composio_v3", strategies[0].Name())
		assert.Equal(t, "composio_legacy", strategies[1].Name())
		assert.Equal(t, "composio_http", strategies[2].Name())
	})

	t.Run("empty client bag", func(t *testing.T) {
		assert.Empty(t, NewStrategies(composio.Clients{}))
	})
}

// Identifiers outside the legacy enumeration skip the legacy strategy
// without any attempt.
func TestLegacyStrategySkipsUnknownActions(t *testing.T) {
	clients := composio.NewClients(composio.Config{APIKey: "k"})
	strategies := NewStrategies(clients)
	legacy := strategies[1]

	_, err := legacy.Execute(context.Background(), "UNKNOWN_ACTION", ActionCall{})
	var skip *SkipError
	require.ErrorAs(t, err, &skip)
	assert.Equal(t, ErrLegacyActionNotFound, skip.Code)
}
