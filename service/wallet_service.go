package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/solrisk/mwabridge/bridge"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/ports"
	"github.com/solrisk/mwabridge/session"
)

// Deauthorization is best-effort; it must not hang the caller for the full
// call bound while the session is waiting to be cleared locally.
const deauthorizeTimeout = 5 * time.Second

// WalletService is the public surface the app shell talks to. It composes the
// correlator, the session manager, and the lifecycle watcher: each operation
// issues one correlated bridge call, decodes the payload, and applies the
// resulting session transition.
type WalletService struct {
	transport ports.Transport
	emitter   *bridge.Emitter
	sessions  *session.Manager
	watcher   *bridge.Watcher
	logger    watermill.LoggerAdapter

	callTimeout   time.Duration
	deauthTimeout time.Duration

	// One slot per result-event family. Responses cannot be attributed to a
	// specific caller, so a second call of the same family rejects busy
	// instead of racing the first for its events.
	mu       sync.Mutex
	inflight map[string]bool
}

// NewWalletService creates a new wallet service.
func NewWalletService(
	transport ports.Transport,
	emitter *bridge.Emitter,
	sessions *session.Manager,
	watcher *bridge.Watcher,
	logger watermill.LoggerAdapter,
) *WalletService {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &WalletService{
		transport:     transport,
		emitter:       emitter,
		sessions:      sessions,
		watcher:       watcher,
		logger:        logger,
		callTimeout:   bridge.DefaultTimeout,
		deauthTimeout: deauthorizeTimeout,
		inflight:      make(map[string]bool),
	}
}

// Session returns the current wallet session record.
func (s *WalletService) Session() core.WalletSession {
	return s.sessions.Current()
}

// Authorize asks the wallet to authorize this app for the given cluster. A
// stored auth token, when present, is handed back so the wallet may re-approve
// silently; whether it showed UI is not observable here and both outcomes are
// success. On success the first account becomes the session identity.
func (s *WalletService) Authorize(ctx context.Context, cluster core.Cluster, identity core.AppIdentity) (core.AuthorizationResult, error) {
	if !s.transport.Available() {
		return core.AuthorizationResult{}, fmt.Errorf("authorize: %w", core.ErrBridgeUnavailable)
	}
	if err := s.begin(eventAuthorizeResult); err != nil {
		return core.AuthorizationResult{}, fmt.Errorf("authorize: %w", err)
	}
	defer s.end(eventAuthorizeResult)

	stop := s.watcher.Track("authorize", uuid.New().String())
	defer stop()

	req := authorizeRequest{
		Cluster:   string(cluster),
		Identity:  identity,
		AuthToken: s.sessions.Current().AuthToken,
	}

	result, err := bridge.Run(ctx, s.emitter, s.logger, bridge.CallSpec[core.AuthorizationResult]{
		Operation:   "authorize",
		Timeout:     s.callTimeout,
		Start:       func() error { return s.transport.Invoke(methodAuthorize, req) },
		ResultEvent: eventAuthorizeResult,
		ErrorEvent:  eventAuthorizeError,
		Decode:      decodeAuthorization,
	})
	if err != nil {
		// A failed re-authorization leaves any previous session untouched.
		return core.AuthorizationResult{}, err
	}

	primary := result.Accounts[0]
	sess := core.WalletSession{
		Address:   primary.Address,
		AuthToken: result.AuthToken,
		Kind:      core.WalletKindMWABridge,
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return core.AuthorizationResult{}, fmt.Errorf("authorize: %w", err)
	}

	s.logger.Info("wallet authorized", watermill.LogFields{"address": primary.Address})
	return result, nil
}

// SignInWithSolana combines authorization with a signed sign-in statement.
// The authorized identity comes from the proof's account, which is
// wallet-defined in shape, not from the plain account list.
func (s *WalletService) SignInWithSolana(ctx context.Context, cluster core.Cluster, identity core.AppIdentity, payload core.SignInPayload) (core.SignInResult, error) {
	if !s.transport.Available() {
		return core.SignInResult{}, fmt.Errorf("sign in: %w", core.ErrBridgeUnavailable)
	}
	// Sign-in settles on the authorize events, so it shares that slot.
	if err := s.begin(eventAuthorizeResult); err != nil {
		return core.SignInResult{}, fmt.Errorf("sign in: %w", err)
	}
	defer s.end(eventAuthorizeResult)

	stop := s.watcher.Track("signInWithSolana", uuid.New().String())
	defer stop()

	req := signInRequest{
		Cluster:       string(cluster),
		Identity:      identity,
		AuthToken:     s.sessions.Current().AuthToken,
		SignInPayload: payload,
	}

	result, err := bridge.Run(ctx, s.emitter, s.logger, bridge.CallSpec[core.AuthorizationResult]{
		Operation:   "signInWithSolana",
		Timeout:     s.callTimeout,
		Start:       func() error { return s.transport.Invoke(methodAuthorizeSignIn, req) },
		ResultEvent: eventAuthorizeResult,
		ErrorEvent:  eventAuthorizeError,
		Decode:      decodeSignInAuthorization,
	})
	if err != nil {
		return core.SignInResult{}, err
	}

	signIn := result.SignInResult
	sess := core.WalletSession{
		Address:   signIn.Address,
		AuthToken: result.AuthToken,
		Kind:      core.WalletKindMWABridge,
		SignIn: &core.SignInRecord{
			Address:       signIn.Address,
			Signature:     signIn.Signature,
			SignedMessage: signIn.SignedMessage,
		},
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return core.SignInResult{}, fmt.Errorf("sign in: %w", err)
	}

	s.logger.Info("wallet signed in", watermill.LogFields{"address": signIn.Address})
	return *signIn, nil
}

// SignMessage asks the wallet to sign message with the given account, or the
// session's primary account when address is empty. Requires an authorized
// session; without one it fails locally before any bridge call.
func (s *WalletService) SignMessage(ctx context.Context, message []byte, address string) ([]byte, error) {
	sess := s.sessions.Current()
	if !sess.Authorized() {
		return nil, fmt.Errorf("sign message: %w", core.ErrNoSession)
	}
	if !s.transport.Available() {
		return nil, fmt.Errorf("sign message: %w", core.ErrBridgeUnavailable)
	}
	if err := s.begin(eventSignResult); err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	defer s.end(eventSignResult)

	stop := s.watcher.Track("signMessage", uuid.New().String())
	defer stop()

	target := address
	if target == "" {
		target = sess.Address
	}

	req := signMessageRequest{
		AuthToken: sess.AuthToken,
		Address:   target,
		Payload:   byteEncoding.EncodeToString(message),
	}

	return bridge.Run(ctx, s.emitter, s.logger, bridge.CallSpec[[]byte]{
		Operation:   "signMessage",
		Timeout:     s.callTimeout,
		Start:       func() error { return s.transport.Invoke(methodSignMessage, req) },
		ResultEvent: eventSignResult,
		ErrorEvent:  eventSignError,
		Decode:      decodeSignature,
	})
}

// Deauthorize revokes the wallet's authorization and clears the session. The
// bridge call is best-effort: whatever the wallet answers, or fails to, the
// local session ends now. With no token held there is nothing to revoke and
// the call is skipped entirely.
func (s *WalletService) Deauthorize(ctx context.Context) error {
	sess := s.sessions.Current()
	if sess.AuthToken == "" {
		return s.sessions.Clear(ctx)
	}

	if err := s.begin(eventDeauthResult); err != nil {
		return fmt.Errorf("deauthorize: %w", err)
	}
	defer s.end(eventDeauthResult)

	if s.transport.Available() {
		req := deauthorizeRequest{AuthToken: sess.AuthToken}
		_, err := bridge.Run(ctx, s.emitter, s.logger, bridge.CallSpec[struct{}]{
			Operation:   "deauthorize",
			Timeout:     s.deauthTimeout,
			Start:       func() error { return s.transport.Invoke(methodDeauthorize, req) },
			ResultEvent: eventDeauthResult,
			ErrorEvent:  eventDeauthError,
			Decode:      func(json.RawMessage) (struct{}, error) { return struct{}{}, nil },
		})
		if err != nil {
			// The wallet may still hold its record; the client must not.
			s.logger.Error("deauthorize call failed, clearing session anyway", err, watermill.LogFields{
				"address": sess.Address,
			})
		}
	}

	return s.sessions.Clear(ctx)
}

// Capabilities queries the wallet endpoint's feature set. Independent of
// session state.
func (s *WalletService) Capabilities(ctx context.Context) (core.Capabilities, error) {
	if !s.transport.Available() {
		return core.Capabilities{}, fmt.Errorf("get capabilities: %w", core.ErrBridgeUnavailable)
	}
	if err := s.begin(eventCapsResult); err != nil {
		return core.Capabilities{}, fmt.Errorf("get capabilities: %w", err)
	}
	defer s.end(eventCapsResult)

	return bridge.Run(ctx, s.emitter, s.logger, bridge.CallSpec[core.Capabilities]{
		Operation:   "getCapabilities",
		Timeout:     s.callTimeout,
		Start:       func() error { return s.transport.Invoke(methodCapabilities) },
		ResultEvent: eventCapsResult,
		ErrorEvent:  eventCapsError,
		Decode:      decodeCapabilities,
	})
}

func (s *WalletService) begin(resultEvent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[resultEvent] {
		return core.ErrBusy
	}
	s.inflight[resultEvent] = true
	return nil
}

func (s *WalletService) end(resultEvent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, resultEvent)
}
