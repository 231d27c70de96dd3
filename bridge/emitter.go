package bridge

import (
	"encoding/json"
	"sync"
)

// Listener receives the payload of a named host event.
type Listener func(payload json.RawMessage)

// Emitter routes named host events to registered listeners.
//
// The host attaches no correlation tokens to its events, so callers defend
// against duplicate or stale deliveries by removing their listeners on first
// settlement. Delivery happens under the registry lock, which makes removal a
// strict barrier: once RemoveListener returns, the listener will not run
// again. Listeners must therefore be non-blocking and must not call back into
// the emitter.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string]map[int]Listener
	nextID    int
}

// NewEmitter creates an empty event registry.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string]map[int]Listener)}
}

// AddListener registers fn for event and returns a token for removal.
func (e *Emitter) AddListener(event string, fn Listener) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[int]Listener)
	}
	e.listeners[event][id] = fn
	return id
}

// RemoveListener deregisters a listener. Removing an already-removed or
// unknown token is a no-op.
func (e *Emitter) RemoveListener(event string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if set, ok := e.listeners[event]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(e.listeners, event)
		}
	}
}

// Dispatch delivers payload to every listener currently registered for event.
// Events nobody listens for are dropped; that is the normal fate of late
// results after a call already settled.
func (e *Emitter) Dispatch(event string, payload json.RawMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, fn := range e.listeners[event] {
		fn(payload)
	}
}

// ListenerCount reports how many listeners are registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.listeners[event])
}
