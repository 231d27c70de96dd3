package host

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/solrisk/mwabridge/bridge"
	"github.com/solrisk/mwabridge/ports"
)

// Invocation records one call the client issued to the loopback host.
type Invocation struct {
	Method string
	Args   []any
}

// Loopback is an in-process host implementation whose events are raised
// manually. This is primarily intended for testing and for running the shell
// without a native wallet layer.
type Loopback struct {
	emitter *bridge.Emitter
	states  *StateFeed

	mu          sync.Mutex
	available   bool
	invocations []Invocation
	invokeErr   error
	onInvoke    func(Invocation)
}

// NewLoopback creates a loopback host dispatching into emitter. states may be
// nil when lifecycle transitions are not exercised.
func NewLoopback(emitter *bridge.Emitter, states *StateFeed) *Loopback {
	return &Loopback{
		emitter:   emitter,
		states:    states,
		available: true,
	}
}

// Available reports the configured availability.
func (l *Loopback) Available() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// SetAvailable toggles availability, simulating a host without the bridge
// surface.
func (l *Loopback) SetAvailable(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available = v
}

// FailNextInvoke makes the next Invoke return err synchronously.
func (l *Loopback) FailNextInvoke(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invokeErr = err
}

// OnInvoke installs a hook run synchronously for every recorded invocation;
// the hook may raise result or error events inline.
func (l *Loopback) OnInvoke(fn func(Invocation)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onInvoke = fn
}

// Invoke records the call and runs the OnInvoke hook, if any.
func (l *Loopback) Invoke(method string, args ...any) error {
	l.mu.Lock()
	if l.invokeErr != nil {
		err := l.invokeErr
		l.invokeErr = nil
		l.mu.Unlock()
		return err
	}
	inv := Invocation{Method: method, Args: args}
	l.invocations = append(l.invocations, inv)
	hook := l.onInvoke
	l.mu.Unlock()

	if hook != nil {
		hook(inv)
	}
	return nil
}

// Invocations returns a copy of the calls recorded so far.
func (l *Loopback) Invocations() []Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Invocation, len(l.invocations))
	copy(out, l.invocations)
	return out
}

// RaiseResult dispatches a result event carrying payload, JSON-encoded.
func (l *Loopback) RaiseResult(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("loopback: unencodable payload for %s: %v", event, err))
	}
	l.emitter.Dispatch(event, raw)
}

// RaiseError dispatches an error event carrying message.
func (l *Loopback) RaiseError(event string, message string) {
	raw, err := json.Marshal(message)
	if err != nil {
		panic(fmt.Sprintf("loopback: unencodable error for %s: %v", event, err))
	}
	l.emitter.Dispatch(event, raw)
}

// EnterBackground simulates the app losing focus to the wallet.
func (l *Loopback) EnterBackground() {
	if l.states != nil {
		l.states.Emit(ports.AppStateBackground)
	}
}

// EnterForeground simulates the app regaining focus.
func (l *Loopback) EnterForeground() {
	if l.states != nil {
		l.states.Emit(ports.AppStateForeground)
	}
}
