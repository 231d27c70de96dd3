package core

import (
	"errors"
	"fmt"
)

var (
	// ErrBridgeUnavailable means the host does not expose the bridge call
	// surface; no host call was attempted.
	ErrBridgeUnavailable = errors.New("wallet bridge is not available")

	// ErrInvalidArgument means the host rejected the call synchronously.
	ErrInvalidArgument = errors.New("bridge rejected call arguments")

	// ErrTimeout means no result or error event arrived within the bound.
	// The host operation may still complete later; the client stops waiting.
	ErrTimeout = errors.New("timed out waiting for wallet response")

	// ErrProtocolViolation means the host reported success but the payload
	// breaks the protocol contract.
	ErrProtocolViolation = errors.New("wallet response violates protocol contract")

	// ErrNoSession means the operation requires an authorized session.
	ErrNoSession = errors.New("no authorized wallet session")

	// ErrBusy means an operation of the same kind is already in flight.
	ErrBusy = errors.New("another wallet request is already in flight")
)

// HostError is a failure the host reported explicitly via the error event.
// Message carries the host's text verbatim.
type HostError struct {
	Op      string
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("wallet host rejected %s: %s", e.Op, e.Message)
}
