package plaid

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	go_json "github.com/goccy/go-json"
)

// VerificationKey is the JSON Web Key the provider signs webhooks with.
type VerificationKey struct {
	Alg       string `json:"alg"`
	CreatedAt int64  `json:"created_at"`
	Crv       string `json:"crv"`
	ExpiredAt *int64 `json:"expired_at"`
	Kid       string `json:"kid"`
	Kty       string `json:"kty"`
	Use       string `json:"use"`
	X         string `json:"x"`
	Y         string `json:"y"`
}

var ErrNotECKey = errors.New("verification key is not an EC public key")

// PublicKey decodes the JWK into an ECDSA public key.
func (k *VerificationKey) PublicKey() (*ecdsa.PublicKey, error) {
	raw, err := go_json.Marshal(k)
	if err != nil {
		return nil, fmt.Errorf("encoding jwk: %w", err)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("parsing jwk: %w", err)
	}

	pub, ok := jwk.Key.(*ecdsa.PublicKey)
	if !ok {
		return nil, ErrNotECKey
	}
	return pub, nil
}

// IsExpired reports whether the provider has retired the key as of now.
func (k *VerificationKey) IsExpired(now time.Time) bool {
	if k.ExpiredAt == nil || *k.ExpiredAt == 0 {
		return false
	}
	return !now.Before(time.Unix(*k.ExpiredAt, 0))
}

type verificationKeyRequest struct {
	KeyID string `json:"key_id"`
}

type verificationKeyResponse struct {
	Key       VerificationKey `json:"key"`
	RequestID string          `json:"request_id"`
}

type Category struct {
	CategoryID string   `json:"category_id"`
	Group      string   `json:"group"`
	Hierarchy  []string `json:"hierarchy"`
}

type CategoriesResponse struct {
	Categories []Category `json:"categories"`
	RequestID  string     `json:"request_id"`
}
