package dispatch

import (
	"context"

	"github.com/golovatskygroup/toolbridge/internal/composio"
)

// NewStrategies assembles the execution strategies available for the
// given client bag, in priority order: v3 first, then the legacy
// enumeration path, then the raw HTTP envelope. Generations whose client
// could not be constructed are left out entirely.
func NewStrategies(clients composio.Clients) []Strategy {
	var out []Strategy
	if clients.V3 != nil {
		out = append(out, &v3Strategy{client: clients.V3})
	}
	if clients.Legacy != nil {
		out = append(out, &legacyStrategy{client: clients.Legacy})
	}
	if clients.Raw != nil {
		out = append(out, &rawStrategy{client: clients.Raw})
	}
	return out
}

type v3Strategy struct {
	client *composio.V3Client
}

func (s *v3Strategy) Name() string { return s.client.Name() }

func (s *v3Strategy) Execute(ctx context.Context, action string, call ActionCall) (map[string]any, error) {
	return s.client.Execute(ctx, action, call.Arguments, call.ConnectedAccountID, call.UserID, call.AllowTracing)
}

type legacyStrategy struct {
	client *composio.LegacyClient
}

func (s *legacyStrategy) Name() string { return s.client.Name() }

// Execute runs the action through the legacy enumeration. Identifiers
// outside the enumeration are not attempted at all; the strategy is
// skipped with the closed not-found code.
func (s *legacyStrategy) Execute(ctx context.Context, action string, call ActionCall) (map[string]any, error) {
	if _, ok := composio.LegacyAction(action); !ok {
		return nil, &SkipError{Code: ErrLegacyActionNotFound}
	}
	allowTracing := call.AllowTracing != nil && *call.AllowTracing
	return s.client.Execute(ctx, action, call.Arguments, call.ConnectedAccountID, allowTracing)
}

type rawStrategy struct {
	client *composio.RawClient
}

func (s *rawStrategy) Name() string { return s.client.Name() }

// Execute posts the raw envelope. That generation predates the
// out-of-band reserved fields, so they are folded back into the wire
// params here, on the wire only.
func (s *rawStrategy) Execute(ctx context.Context, action string, call ActionCall) (map[string]any, error) {
	params := make(map[string]any, len(call.Arguments)+2)
	for k, v := range call.Arguments {
		params[k] = v
	}
	if call.ConnectedAccountID != "" {
		params["connected_account_id"] = call.ConnectedAccountID
	}
	if call.UserID != "" {
		params["user_id"] = call.UserID
	}
	return s.client.Execute(ctx, action, params)
}
