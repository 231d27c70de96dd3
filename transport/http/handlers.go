package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solrisk/mwabridge/core"
	"github.com/solrisk/mwabridge/service"
)

// Handler exposes the wallet service over HTTP for the app shell.
type Handler struct {
	svc *service.WalletService
}

// NewHandler creates a new handler
func NewHandler(svc *service.WalletService) *Handler {
	return &Handler{svc: svc}
}

// AuthorizeRequest represents an authorize request
type AuthorizeRequest struct {
	Cluster  string           `json:"cluster" binding:"required"`
	Identity core.AppIdentity `json:"identity"`
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	Cluster  string             `json:"cluster" binding:"required"`
	Identity core.AppIdentity   `json:"identity"`
	Payload  core.SignInPayload `json:"payload" binding:"required"`
}

// SignMessageRequest represents a sign-message request; the message travels
// base64-encoded.
type SignMessageRequest struct {
	Message string `json:"message" binding:"required"`
	Address string `json:"address"`
}

// AccountResponse represents one granted account
type AccountResponse struct {
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
}

// AuthorizeResponse represents an authorize response
type AuthorizeResponse struct {
	Address  string            `json:"address"`
	Accounts []AccountResponse `json:"accounts"`
}

// SignInResponse represents a sign-in response
type SignInResponse struct {
	Address       string `json:"address"`
	Signature     string `json:"signature"`
	SignedMessage string `json:"signed_message"`
}

// SignMessageResponse represents a sign-message response
type SignMessageResponse struct {
	Signature string `json:"signature"`
}

// SessionResponse represents the current session state
type SessionResponse struct {
	Address    string `json:"address,omitempty"`
	WalletKind string `json:"wallet_kind,omitempty"`
	Authorized bool   `json:"authorized"`
}

// Authorize handles the authorize endpoint
func (h *Handler) Authorize(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.svc.Authorize(c.Request.Context(), core.Cluster(req.Cluster), req.Identity)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	accounts := make([]AccountResponse, 0, len(result.Accounts))
	for _, acc := range result.Accounts {
		accounts = append(accounts, AccountResponse{Address: acc.Address, Label: acc.Label})
	}

	c.JSON(http.StatusOK, AuthorizeResponse{
		Address:  result.Accounts[0].Address,
		Accounts: accounts,
	})
}

// SignIn handles the sign-in endpoint
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.svc.SignInWithSolana(c.Request.Context(), core.Cluster(req.Cluster), req.Identity, req.Payload)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SignInResponse{
		Address:       result.Address,
		Signature:     base64.StdEncoding.EncodeToString(result.Signature),
		SignedMessage: base64.StdEncoding.EncodeToString(result.SignedMessage),
	})
}

// SignMessage handles the sign-message endpoint
func (h *Handler) SignMessage(c *gin.Context) {
	var req SignMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	message, err := base64.StdEncoding.DecodeString(req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must be base64"})
		return
	}

	signature, err := h.svc.SignMessage(c.Request.Context(), message, req.Address)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SignMessageResponse{
		Signature: base64.StdEncoding.EncodeToString(signature),
	})
}

// Deauthorize handles the deauthorize endpoint
func (h *Handler) Deauthorize(c *gin.Context) {
	if err := h.svc.Deauthorize(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deauthorized"})
}

// Capabilities handles the capabilities endpoint
func (h *Handler) Capabilities(c *gin.Context) {
	caps, err := h.svc.Capabilities(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, caps)
}

// Session handles the session endpoint
func (h *Handler) Session(c *gin.Context) {
	sess := h.svc.Session()

	c.JSON(http.StatusOK, SessionResponse{
		Address:    sess.Address,
		WalletKind: string(sess.Kind),
		Authorized: sess.Authorized(),
	})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var hostErr *core.HostError

	switch {
	case errors.Is(err, core.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, core.ErrBridgeUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrProtocolViolation):
		return http.StatusBadGateway
	case errors.As(err, &hostErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
