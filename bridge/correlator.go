package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/solrisk/mwabridge/core"
)

// DefaultTimeout bounds a correlated call when the caller sets no bound.
const DefaultTimeout = 30 * time.Second

// CallSpec describes one correlated request/response exchange with the host.
type CallSpec[T any] struct {
	// Operation names the logical call for diagnostics and error messages.
	// The host offers no correlation tokens, so it never travels as an id.
	Operation string

	// Timeout bounds the wait for a host event; DefaultTimeout when zero.
	Timeout time.Duration

	// Start issues the fire-and-forget host call. A non-nil return is the
	// synchronous rejection path and settles the call immediately.
	Start func() error

	// ResultEvent and ErrorEvent name the host events that settle the call.
	ResultEvent string
	ErrorEvent  string

	// Decode turns a result payload into the caller's value. A decode
	// failure is reported as a protocol violation, never a success.
	Decode func(payload json.RawMessage) (T, error)
}

type outcome struct {
	payload json.RawMessage
	errMsg  string
	isErr   bool
}

// Run performs one correlated exchange: it installs a listener pair for the
// result and error events, issues the host call, and settles on whichever of
// {result event, error event, timeout, context cancellation} happens first.
//
// Listeners and the timer are torn down on every exit path, including a
// synchronous Start failure, so duplicate or late host events are dropped
// instead of leaking into later calls of the same kind. Each call settles
// exactly once.
func Run[T any](ctx context.Context, em *Emitter, logger watermill.LoggerAdapter, spec CallSpec[T]) (T, error) {
	var zero T
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Buffered so the first event wins without blocking dispatch; any later
	// event falls through the default case and is dropped.
	settled := make(chan outcome, 1)
	resultID := em.AddListener(spec.ResultEvent, func(payload json.RawMessage) {
		select {
		case settled <- outcome{payload: payload}:
		default:
		}
	})
	errorID := em.AddListener(spec.ErrorEvent, func(payload json.RawMessage) {
		select {
		case settled <- outcome{errMsg: decodeErrorMessage(payload), isErr: true}:
		default:
		}
	})
	defer em.RemoveListener(spec.ResultEvent, resultID)
	defer em.RemoveListener(spec.ErrorEvent, errorID)

	if err := spec.Start(); err != nil {
		return zero, fmt.Errorf("%s: %w: %v", spec.Operation, core.ErrInvalidArgument, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-settled:
		if out.isErr {
			return zero, &core.HostError{Op: spec.Operation, Message: out.errMsg}
		}
		v, err := spec.Decode(out.payload)
		if err != nil {
			return zero, fmt.Errorf("%s: %w: %v", spec.Operation, core.ErrProtocolViolation, err)
		}
		return v, nil

	case <-timer.C:
		logger.Info("wallet call timed out", watermill.LogFields{
			"operation": spec.Operation,
			"timeout":   timeout.String(),
		})
		return zero, fmt.Errorf("%s after %s: %w", spec.Operation, timeout, core.ErrTimeout)

	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w", spec.Operation, ctx.Err())
	}
}

// decodeErrorMessage normalizes the host's error payload to a plain string.
// Hosts emit either a bare JSON string or an object with a "message" field.
func decodeErrorMessage(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(payload)
}
