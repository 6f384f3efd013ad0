// Package dispatch executes remote actions by trying a fixed ordered set
// of execution strategies until one answers.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Closed error codes callers can switch on. Anything else in an Outcome
// error is a free-text failure message from the last strategy tried.
const (
	ErrClientUnavailable    = "composio_client_unavailable"
	ErrLegacyActionNotFound = "legacy_action_not_found"
)

// Reserved parameter keys. The downstream API requires these out-of-band;
// forwarding them inside the generic argument mapping is a protocol
// violation the service rejects.
const (
	keyConnectedAccountID = "connected_account_id"
	keyUserID             = "user_id"
	keyAllowTracing       = "allow_tracing"
)

// ActionCall is the strategy-facing form of an action request: the
// generic argument mapping with every reserved key lifted into its own
// field.
type ActionCall struct {
	Arguments          map[string]any
	ConnectedAccountID string
	UserID             string
	AllowTracing       *bool
}

// SplitParams copies params into an ActionCall, stripping the reserved
// keys from the argument mapping. The input map is not mutated.
func SplitParams(params map[string]any) ActionCall {
	call := ActionCall{Arguments: make(map[string]any, len(params))}
	for k, v := range params {
		switch k {
		case keyConnectedAccountID:
			if s, ok := v.(string); ok {
				call.ConnectedAccountID = s
			}
		case keyUserID:
			if s, ok := v.(string); ok {
				call.UserID = s
			}
		case keyAllowTracing:
			if b, ok := v.(bool); ok {
				call.AllowTracing = &b
			}
		default:
			call.Arguments[k] = v
		}
	}
	return call
}

// Strategy is one concrete way of invoking a remote action.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, action string, call ActionCall) (map[string]any, error)
}

// SkipError marks a strategy that was not attempted at all, carrying the
// closed error code to report if the skip turns out to be terminal.
type SkipError struct {
	Code string
}

func (e *SkipError) Error() string { return e.Code }

// Attempt records one strategy that did not produce a result.
type Attempt struct {
	Strategy string `json:"strategy"`
	Error    string `json:"error"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Outcome is the binary result of a dispatch: either Data or Err is set.
// Attempts list the strategies tried before the outcome was reached.
type Outcome struct {
	Data     map[string]any `json:"data,omitempty"`
	Err      string         `json:"error,omitempty"`
	Attempts []Attempt      `json:"attempts,omitempty"`
}

// OK reports whether the dispatch produced a result.
func (o Outcome) OK() bool { return o.Err == "" }

// AsMap renders the fixed wire form: the result mapping on success, or
// {"error": <code>} on failure.
func (o Outcome) AsMap() map[string]any {
	if o.OK() {
		return o.Data
	}
	return map[string]any{"error": o.Err}
}

// Dispatcher tries strategies in order and accepts the first that
// returns without a call-level error.
type Dispatcher struct {
	strategies  []Strategy
	callTimeout time.Duration
	log         zerolog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithCallTimeout bounds each strategy invocation. Zero leaves calls
// unbounded.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.callTimeout = timeout
	}
}

// WithLogger sets the dispatcher's logger. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// NewDispatcher builds a Dispatcher over strategies in priority order.
func NewDispatcher(strategies []Strategy, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		strategies: strategies,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs one action. Strategies are tried in order; the first to
// return without a call-level error is final, even when its payload
// encodes an application-level error. Call-level failures and skips move
// on to the next strategy; when everything is exhausted the terminal
// error is the last strategy's failure mode, defaulting to the
// client-unavailable code when no strategy could run at all.
func (d *Dispatcher) Execute(ctx context.Context, action string, params map[string]any) Outcome {
	requestID := uuid.New().String()
	call := SplitParams(params)

	d.log.Info().
		Str("request_id", requestID).
		Str("action", action).
		Msg("executing action")

	var attempts []Attempt
	terminal := ErrClientUnavailable

	for _, s := range d.strategies {
		result, err := d.run(ctx, s, action, call)
		if err == nil {
			d.log.Info().
				Str("request_id", requestID).
				Str("action", action).
				Str("strategy", s.Name()).
				Msg("action succeeded")
			return Outcome{Data: result, Attempts: attempts}
		}

		var skip *SkipError
		if errors.As(err, &skip) {
			attempts = append(attempts, Attempt{Strategy: s.Name(), Error: skip.Code, Skipped: true})
			terminal = skip.Code
			continue
		}

		d.log.Error().
			Str("request_id", requestID).
			Str("action", action).
			Str("strategy", s.Name()).
			Err(err).
			Msg("strategy failed")
		attempts = append(attempts, Attempt{Strategy: s.Name(), Error: err.Error()})
		terminal = err.Error()
	}

	return Outcome{Err: terminal, Attempts: attempts}
}

func (d *Dispatcher) run(ctx context.Context, s Strategy, action string, call ActionCall) (map[string]any, error) {
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}
	return s.Execute(ctx, action, call)
}
