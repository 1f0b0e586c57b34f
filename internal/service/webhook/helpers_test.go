package webhook

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/golang-jwt/jwt/v5"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type testSigner struct {
	priv *ecdsa.PrivateKey
	key  plaid.VerificationKey
}

func newTestSigner(t *testing.T, kid string) *testSigner {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	enc := base64.RawURLEncoding
	return &testSigner{
		priv: priv,
		key: plaid.VerificationKey{
			Alg:       "ES256",
			CreatedAt: testNow.Add(-24 * time.Hour).Unix(),
			Crv:       "P-256",
			Kid:       kid,
			Kty:       "EC",
			Use:       "sig",
			X:         enc.EncodeToString(priv.PublicKey.X.FillBytes(make([]byte, 32))),
			Y:         enc.EncodeToString(priv.PublicKey.Y.FillBytes(make([]byte, 32))),
		},
	}
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// sign produces the header value the provider would send for body.
func (s *testSigner) sign(t *testing.T, body []byte, iat time.Time) string {
	t.Helper()
	return s.signClaims(t, jwt.MapClaims{
		"iat":                 iat.Unix(),
		"request_body_sha256": bodyHash(body),
	})
}

func (s *testSigner) signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.key.Kid

	signed, err := token.SignedString(s.priv)
	if err != nil {
		t.Fatalf("failed to sign assertion: %v", err)
	}
	return signed
}

var errUnknownKey = errors.New("unknown key")

// staticKeys is a KeyProvider over a fixed set of keys.
type staticKeys struct {
	keys  map[string]plaid.VerificationKey
	calls atomic.Int32
}

func newStaticKeys(keys ...plaid.VerificationKey) *staticKeys {
	s := &staticKeys{keys: make(map[string]plaid.VerificationKey)}
	for _, k := range keys {
		s.keys[k.Kid] = k
	}
	return s
}

func (s *staticKeys) GetVerificationKey(_ context.Context, keyID string) (plaid.VerificationKey, error) {
	s.calls.Add(1)
	k, ok := s.keys[keyID]
	if !ok {
		return plaid.VerificationKey{}, errUnknownKey
	}
	return k, nil
}

// fakeFetcher is a KeyFetcher that records calls.
type fakeFetcher struct {
	mu    sync.Mutex
	keys  map[string]plaid.VerificationKey
	err   error
	block chan struct{}
	calls atomic.Int32
}

func (f *fakeFetcher) GetVerificationKey(ctx context.Context, keyID string) (*plaid.VerificationKey, error) {
	f.calls.Add(1)

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	k, ok := f.keys[keyID]
	if !ok {
		return nil, errUnknownKey
	}
	return &k, nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}
