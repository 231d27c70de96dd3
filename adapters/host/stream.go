package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/solrisk/mwabridge/bridge"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/ports"
)

// Default topics the native layer exchanges bridge traffic on.
const (
	DefaultCallTopic  = "wallet.bridge.calls"
	DefaultEventTopic = "wallet.bridge.events"
)

// appStateEvent is the reserved host event carrying foreground/background
// transitions; it is routed to the state feed instead of the emitter.
const appStateEvent = "appState"

// CallEnvelope is the message the client publishes for each host invoke. ID
// is diagnostics only; the host does not echo it back.
type CallEnvelope struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// EventEnvelope is the message the host publishes for each named event. The
// payload carries a result document or an error message, depending on the
// event name.
type EventEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StreamConfig configures the topics a StreamTransport exchanges traffic on.
type StreamConfig struct {
	CallTopic  string
	EventTopic string
}

func (c *StreamConfig) setDefaults() {
	if c.CallTopic == "" {
		c.CallTopic = DefaultCallTopic
	}
	if c.EventTopic == "" {
		c.EventTopic = DefaultEventTopic
	}
}

// StreamTransport links the client to the native host layer over a Watermill
// pub/sub (Redis streams in production). Invoke publishes a call envelope to
// the host topic; host events flow back on the event topic and are dispatched
// into the emitter by name, so the correlator's listener discipline applies
// unchanged across the process boundary.
type StreamTransport struct {
	publisher message.Publisher
	emitter   *bridge.Emitter
	states    *StateFeed
	logger    watermill.LoggerAdapter
	config    StreamConfig

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

// NewStreamTransport subscribes to the host event topic and starts routing
// events. The transport reports available until Close is called.
func NewStreamTransport(
	ctx context.Context,
	config StreamConfig,
	publisher message.Publisher,
	subscriber message.Subscriber,
	emitter *bridge.Emitter,
	states *StateFeed,
	logger watermill.LoggerAdapter,
) (*StreamTransport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	config.setDefaults()

	ctx, cancel := context.WithCancel(ctx)

	messages, err := subscriber.Subscribe(ctx, config.EventTopic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to host events: %w", err)
	}

	t := &StreamTransport{
		publisher: publisher,
		emitter:   emitter,
		states:    states,
		logger:    logger,
		config:    config,
		cancel:    cancel,
	}

	go t.route(messages)

	return t, nil
}

// Available reports whether the host link is up.
func (t *StreamTransport) Available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Invoke publishes a fire-and-forget call envelope to the host topic. A
// non-nil return means the call never left the client; no event will follow.
func (t *StreamTransport) Invoke(method string, args ...any) error {
	if !t.Available() {
		return core.ErrBridgeUnavailable
	}

	env := CallEnvelope{
		ID:     uuid.New().String(),
		Method: method,
		Args:   args,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	msg := message.NewMessage(env.ID, payload)

	if err := t.publisher.Publish(t.config.CallTopic, msg); err != nil {
		return fmt.Errorf("failed to publish %s call: %w", method, err)
	}

	t.logger.Trace("published host call", watermill.LogFields{
		"method":  method,
		"call_id": env.ID,
	})
	return nil
}

// Close stops event routing; Available reports false afterwards.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.cancel()
	return nil
}

func (t *StreamTransport) route(messages <-chan *message.Message) {
	for msg := range messages {
		var env EventEnvelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			t.logger.Error("dropping undecodable host event", err, watermill.LogFields{
				"message_uuid": msg.UUID,
			})
			msg.Ack()
			continue
		}

		if env.Event == appStateEvent {
			t.routeAppState(env.Payload)
		} else {
			t.emitter.Dispatch(env.Event, env.Payload)
		}

		msg.Ack()
	}
}

func (t *StreamTransport) routeAppState(payload json.RawMessage) {
	if t.states == nil {
		return
	}

	var state string
	if err := json.Unmarshal(payload, &state); err != nil {
		t.logger.Error("dropping undecodable app state event", err, nil)
		return
	}

	switch ports.AppState(state) {
	case ports.AppStateForeground, ports.AppStateBackground:
		t.states.Emit(ports.AppState(state))
	default:
		t.logger.Debug("ignoring unknown app state", watermill.LogFields{"state": state})
	}
}
