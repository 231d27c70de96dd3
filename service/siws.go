package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// The wallet defines the shape of the account field inside a sign-in result:
// some wallets return the address as a bare string, others an object carrying
// an address, others only the raw public key bytes. Extraction is an explicit
// tagged-variant decode; a shape that yields no address is a contract breach.

// extractSignInAddress resolves the authorized address from a wallet-defined
// account representation.
func extractSignInAddress(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("sign-in result carried no account")
	}

	// Variant 1: a bare address string.
	var addr string
	if err := json.Unmarshal(raw, &addr); err == nil {
		if addr == "" {
			return "", errors.New("sign-in account address is empty")
		}
		return addr, nil
	}

	// Variant 2 and 3: an object with an address, or with raw key bytes.
	var obj struct {
		Address   string `json:"address"`
		PublicKey string `json:"public_key"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("undecodable sign-in account: %w", err)
	}

	if obj.Address != "" {
		return obj.Address, nil
	}

	if obj.PublicKey != "" {
		key, err := byteEncoding.DecodeString(obj.PublicKey)
		if err != nil {
			return "", fmt.Errorf("sign-in account public key is not base64: %w", err)
		}
		if len(key) == 0 {
			return "", errors.New("sign-in account public key is empty")
		}
		// Solana addresses are the base58 text form of the public key.
		return base58.Encode(key), nil
	}

	return "", errors.New("sign-in account carries neither address nor public key")
}
