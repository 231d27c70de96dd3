package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/ports"
)

// SessionChangedTopic is the topic session transitions are broadcast on.
const SessionChangedTopic = "wallet.session.changed"

// SessionChangedEvent mirrors the session fields collaborators key on. A
// cleared session is broadcast with an empty address and Authorized false.
type SessionChangedEvent struct {
	Address    string `json:"address"`
	WalletKind string `json:"wallet_kind,omitempty"`
	Authorized bool   `json:"authorized"`
}

// WatermillPublisher implements the SessionEvents interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.SessionEvents {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SessionChangedTopic,
	}
}

// PublishSessionChanged broadcasts a session transition.
func (p *WatermillPublisher) PublishSessionChanged(ctx context.Context, sess core.WalletSession) error {
	event := SessionChangedEvent{
		Address:    sess.Address,
		WalletKind: string(sess.Kind),
		Authorized: sess.Authorized(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
