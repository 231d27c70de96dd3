// Package session owns the process-wide record of which wallet account is
// currently authorized.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/ports"
)

// ErrEmptyAddress is returned when a caller tries to set a session without an
// authorized address; such a state is only reachable through Clear.
var ErrEmptyAddress = errors.New("session address must not be empty")

// Manager is the single owner of the wallet session record. It is constructed
// once at the composition root and handed to every consumer; all mutation goes
// through Set and Clear, which persist the new state and broadcast a
// session-changed notification. Every write replaces or clears the whole
// record, never part of it.
type Manager struct {
	store  ports.SessionStore
	events ports.SessionEvents
	logger watermill.LoggerAdapter

	mu      sync.RWMutex
	current core.WalletSession
}

// NewManager creates a session manager. events may be nil when nobody listens.
func NewManager(store ports.SessionStore, events ports.SessionEvents, logger watermill.LoggerAdapter) *Manager {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Manager{
		store:  store,
		events: events,
		logger: logger,
	}
}

// Hydrate loads the persisted session, if any. Called once at startup, before
// the manager is shared; it does not broadcast.
func (m *Manager) Hydrate(ctx context.Context) error {
	sess, found, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}
	if !found {
		return nil
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.Debug("hydrated wallet session", watermill.LogFields{"address": sess.Address})
	return nil
}

// Current returns a copy of the session record.
func (m *Manager) Current() core.WalletSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Authorized reports whether an account is currently authorized.
func (m *Manager) Authorized() bool {
	return m.Current().Authorized()
}

// Set replaces the session wholesale. The new state is persisted first; only
// a durable transition is applied and broadcast. Replacing an existing session
// with a different account is a legal transition.
func (m *Manager) Set(ctx context.Context, sess core.WalletSession) error {
	if sess.Address == "" {
		return ErrEmptyAddress
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.publish(ctx, sess)
	return nil
}

// Clear drops the session. Idempotent: clearing an empty session still
// succeeds and still broadcasts, and a store failure cannot resurrect the
// session — the in-memory record is emptied unconditionally.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.current = core.WalletSession{}
	m.mu.Unlock()

	if err := m.store.Delete(ctx); err != nil {
		m.logger.Error("failed to delete persisted session", err, nil)
	}

	m.publish(ctx, core.WalletSession{})
	return nil
}

// Teardown releases the manager. Nothing is held today; the composition root
// calls it so the manager keeps an explicit lifecycle end to pair with
// Hydrate.
func (m *Manager) Teardown() {}

func (m *Manager) publish(ctx context.Context, sess core.WalletSession) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishSessionChanged(ctx, sess); err != nil {
		// Collaborators missing one notification is recoverable; a failed
		// broadcast must not fail the transition itself.
		m.logger.Error("failed to broadcast session change", err, nil)
	}
}
