package bridge

import (
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/solrisk/mwabridge/ports"
)

// Watcher observes foreground/background transitions while a wallet call is
// in flight. Authorize and sign calls hand focus to the external wallet app,
// so the interesting signal is "back in the foreground but the call has not
// settled". The watcher only logs; it never touches settlement.
type Watcher struct {
	source ports.AppStateSource
	logger watermill.LoggerAdapter
}

// NewWatcher creates a watcher over the given app-state source. A nil source
// disables tracking.
func NewWatcher(source ports.AppStateSource, logger watermill.LoggerAdapter) *Watcher {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Watcher{source: source, logger: logger}
}

// Track starts watching for the named call and returns a stop func. The stop
// func must be called once the call settles, on every path; calling it more
// than once is harmless.
func (w *Watcher) Track(operation, callID string) (stop func()) {
	if w == nil || w.source == nil {
		return func() {}
	}

	start := time.Now()
	var mu sync.Mutex
	backgrounded := false

	unsubscribe := w.source.Subscribe(func(state ports.AppState) {
		mu.Lock()
		defer mu.Unlock()

		switch state {
		case ports.AppStateBackground:
			backgrounded = true
		case ports.AppStateForeground:
			if backgrounded {
				w.logger.Info("wallet call still pending after return to foreground", watermill.LogFields{
					"operation": operation,
					"call_id":   callID,
					"elapsed":   time.Since(start).String(),
				})
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(unsubscribe)
	}
}
