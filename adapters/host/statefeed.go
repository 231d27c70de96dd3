package host

import (
	"sync"

	"github.com/solrisk/mwabridge/ports"
)

// StateFeed fans application foreground/background transitions out to
// subscribers. The host layer feeds it; lifecycle watchers subscribe for the
// duration of a wallet call.
type StateFeed struct {
	mu   sync.Mutex
	subs map[int]func(ports.AppState)
	next int
}

// NewStateFeed creates an empty feed.
func NewStateFeed() *StateFeed {
	return &StateFeed{subs: make(map[int]func(ports.AppState))}
}

// Subscribe registers fn for subsequent transitions and returns an
// unsubscribe func. Unsubscribing twice is harmless.
func (f *StateFeed) Subscribe(fn func(ports.AppState)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	id := f.next
	f.subs[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Emit delivers a transition to every current subscriber.
func (f *StateFeed) Emit(state ports.AppState) {
	f.mu.Lock()
	subs := make([]func(ports.AppState), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
