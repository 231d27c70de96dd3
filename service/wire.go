package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solrisk/mwabridge/core"
)

// Host method and event names. The bridge carries no correlation ids, so an
// operation's identity is its event-name pair; operations sharing a pair must
// not run concurrently (the busy guard enforces this).
const (
	methodAuthorize       = "authorize"
	methodAuthorizeSignIn = "authorizeWithSignIn"
	methodSignMessage     = "signMessage"
	methodDeauthorize     = "deauthorize"
	methodCapabilities    = "getCapabilities"

	eventAuthorizeResult = "authorizeResult"
	eventAuthorizeError  = "authorizeError"
	eventSignResult      = "signMessageResult"
	eventSignError       = "signMessageError"
	eventDeauthResult    = "deauthorizeResult"
	eventDeauthError     = "deauthorizeError"
	eventCapsResult      = "getCapabilitiesResult"
	eventCapsError       = "getCapabilitiesError"
)

// Binary payloads cross the bridge as base64 text inside JSON.
var byteEncoding = base64.StdEncoding

type authorizeRequest struct {
	Cluster   string           `json:"cluster"`
	Identity  core.AppIdentity `json:"identity"`
	AuthToken string           `json:"auth_token,omitempty"`
}

type signInRequest struct {
	Cluster       string             `json:"cluster"`
	Identity      core.AppIdentity   `json:"identity"`
	AuthToken     string             `json:"auth_token,omitempty"`
	SignInPayload core.SignInPayload `json:"sign_in_payload"`
}

type signMessageRequest struct {
	AuthToken string `json:"auth_token"`
	Address   string `json:"address"`
	Payload   string `json:"payload"`
}

type deauthorizeRequest struct {
	AuthToken string `json:"auth_token"`
}

type accountPayload struct {
	Address   string `json:"address"`
	Label     string `json:"label,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
}

type signInResultPayload struct {
	Account       json.RawMessage `json:"account"`
	Signature     string          `json:"signature"`
	SignedMessage string          `json:"signed_message"`
}

type authorizePayload struct {
	Accounts     []accountPayload     `json:"accounts"`
	AuthToken    string               `json:"auth_token,omitempty"`
	SignInResult *signInResultPayload `json:"sign_in_result,omitempty"`
}

type signMessagePayload struct {
	SignedPayloads []string `json:"signed_payloads"`
}

// decodeAuthorization validates a plain authorization result. An empty
// account list is a contract breach, not a success.
func decodeAuthorization(payload json.RawMessage) (core.AuthorizationResult, error) {
	var p authorizePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return core.AuthorizationResult{}, fmt.Errorf("undecodable authorization result: %w", err)
	}
	if len(p.Accounts) == 0 {
		return core.AuthorizationResult{}, errors.New("authorization result carried no accounts")
	}
	return convertAuthorization(p)
}

// decodeSignInAuthorization validates a sign-in authorization result. The
// sign-in proof is mandatory here; accounts may legally be absent because the
// authorized identity is derived from the proof's account.
func decodeSignInAuthorization(payload json.RawMessage) (core.AuthorizationResult, error) {
	var p authorizePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return core.AuthorizationResult{}, fmt.Errorf("undecodable sign-in result: %w", err)
	}
	if p.SignInResult == nil {
		return core.AuthorizationResult{}, errors.New("sign-in result is missing from authorization")
	}
	return convertAuthorization(p)
}

func convertAuthorization(p authorizePayload) (core.AuthorizationResult, error) {
	result := core.AuthorizationResult{
		AuthToken: p.AuthToken,
		Accounts:  make([]core.Account, 0, len(p.Accounts)),
	}

	for i, acc := range p.Accounts {
		if acc.Address == "" {
			return core.AuthorizationResult{}, fmt.Errorf("account %d has no address", i)
		}
		converted := core.Account{
			Address: acc.Address,
			Label:   acc.Label,
		}
		if acc.PublicKey != "" {
			key, err := byteEncoding.DecodeString(acc.PublicKey)
			if err != nil {
				return core.AuthorizationResult{}, fmt.Errorf("account %d public key is not base64: %w", i, err)
			}
			converted.PublicKey = key
		}
		result.Accounts = append(result.Accounts, converted)
	}

	if p.SignInResult != nil {
		signIn, err := convertSignInResult(p.SignInResult)
		if err != nil {
			return core.AuthorizationResult{}, err
		}
		result.SignInResult = signIn
	}

	return result, nil
}

func convertSignInResult(p *signInResultPayload) (*core.SignInResult, error) {
	address, err := extractSignInAddress(p.Account)
	if err != nil {
		return nil, err
	}

	signature, err := byteEncoding.DecodeString(p.Signature)
	if err != nil {
		return nil, fmt.Errorf("sign-in signature is not base64: %w", err)
	}
	if len(signature) == 0 {
		return nil, errors.New("sign-in signature is empty")
	}

	signedMessage, err := byteEncoding.DecodeString(p.SignedMessage)
	if err != nil {
		return nil, fmt.Errorf("sign-in signed message is not base64: %w", err)
	}

	return &core.SignInResult{
		Address:       address,
		Signature:     signature,
		SignedMessage: signedMessage,
	}, nil
}

// decodeSignature extracts the first signed payload from a sign-message
// result.
func decodeSignature(payload json.RawMessage) ([]byte, error) {
	var p signMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("undecodable sign result: %w", err)
	}
	if len(p.SignedPayloads) == 0 {
		return nil, errors.New("sign result carried no signed payloads")
	}

	signature, err := byteEncoding.DecodeString(p.SignedPayloads[0])
	if err != nil {
		return nil, fmt.Errorf("signature is not base64: %w", err)
	}
	if len(signature) == 0 {
		return nil, errors.New("signature is empty")
	}
	return signature, nil
}

func decodeCapabilities(payload json.RawMessage) (core.Capabilities, error) {
	var caps core.Capabilities
	if err := json.Unmarshal(payload, &caps); err != nil {
		return core.Capabilities{}, fmt.Errorf("undecodable capabilities: %w", err)
	}
	return caps, nil
}
