package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solrisk/mwabridge/adapters/host"
	"github.com/solrisk/mwabridge/adapters/store"
	"github.com/solrisk/mwabridge/bridge"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/service"
	"github.com/solrisk/mwabridge/session"
)

func newTestRouter(t *testing.T) (*gin.Engine, *host.Loopback, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	emitter := bridge.NewEmitter()
	states := host.NewStateFeed()
	lb := host.NewLoopback(emitter, states)
	sessions := session.NewManager(store.NewMemoryStore(), nil, nil)
	watcher := bridge.NewWatcher(states, nil)
	svc := service.NewWalletService(lb, emitter, sessions, watcher, nil)

	return SetupRouter(svc), lb, sessions
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionEndpointUnauthorized(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/wallet/session", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Authorized)
	assert.Empty(t, resp.Address)
}

func TestAuthorizeEndpoint(t *testing.T) {
	router, lb, sessions := newTestRouter(t)
	lb.OnInvoke(func(inv host.Invocation) {
		lb.RaiseResult("authorizeResult", map[string]any{
			"accounts":   []map[string]any{{"address": "Addr1", "label": "Main"}},
			"auth_token": "tok1",
		})
	})

	w := doJSON(router, http.MethodPost, "/wallet/authorize", `{"cluster":"devnet","identity":{"name":"RiskChat"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthorizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Addr1", resp.Address)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "Main", resp.Accounts[0].Label)

	assert.True(t, sessions.Authorized())
}

func TestAuthorizeEndpointRequiresCluster(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/wallet/authorize", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorizeEndpointUnavailableBridge(t *testing.T) {
	router, lb, _ := newTestRouter(t)
	lb.SetAvailable(false)

	w := doJSON(router, http.MethodPost, "/wallet/authorize", `{"cluster":"devnet"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSignMessageEndpointRequiresSession(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/wallet/sign-message", `{"message":"aGVsbG8="}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignMessageEndpoint(t *testing.T) {
	router, lb, sessions := newTestRouter(t)
	require.NoError(t, sessions.Set(context.Background(), core.WalletSession{Address: "Addr1", AuthToken: "tok1"}))

	lb.OnInvoke(func(inv host.Invocation) {
		lb.RaiseResult("signMessageResult", map[string]any{
			"signed_payloads": []string{"c2ln"},
		})
	})

	w := doJSON(router, http.MethodPost, "/wallet/sign-message", `{"message":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SignMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "c2ln", resp.Signature)
}

func TestSignMessageEndpointRejectsBadEncoding(t *testing.T) {
	router, _, sessions := newTestRouter(t)
	require.NoError(t, sessions.Set(context.Background(), core.WalletSession{Address: "Addr1", AuthToken: "tok1"}))

	w := doJSON(router, http.MethodPost, "/wallet/sign-message", `{"message":"not-base64!!!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeauthorizeEndpointClearsSession(t *testing.T) {
	router, _, sessions := newTestRouter(t)
	require.NoError(t, sessions.Set(context.Background(), core.WalletSession{Address: "Addr1"}))

	w := doJSON(router, http.MethodPost, "/wallet/deauthorize", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sessions.Authorized())
}

func TestCapabilitiesEndpoint(t *testing.T) {
	router, lb, _ := newTestRouter(t)
	lb.OnInvoke(func(inv host.Invocation) {
		lb.RaiseResult("getCapabilitiesResult", map[string]any{
			"supports_sign_and_send_transactions": true,
			"max_transactions_per_request":        3,
		})
	})

	w := doJSON(router, http.MethodGet, "/wallet/capabilities", "")
	require.Equal(t, http.StatusOK, w.Code)

	var caps core.Capabilities
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &caps))
	assert.True(t, caps.SupportsSignAndSendTransactions)
	assert.Equal(t, 3, caps.MaxTransactionsPerRequest)
}
