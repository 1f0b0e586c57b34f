package webhook

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/garrettladley/plaidgate/internal/xslog"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultMaxAssertionAge = 5 * time.Minute

// VerificationResult is the verdict on one webhook. Reason is empty when Valid.
// AssertionSHA256 identifies the delivery: the provider signs every send
// separately, so byte-identical bodies of distinct events still differ here.
type VerificationResult struct {
	Valid           bool
	Reason          FailureReason
	KeyID           string
	BodySHA256      string
	AssertionSHA256 string
}

type assertionClaims struct {
	RequestBodySHA256 string `json:"request_body_sha256"`
	jwt.RegisteredClaims
}

// Verifier checks the ES256 assertion carried in the Plaid-Verification header.
type Verifier struct {
	keys   KeyProvider
	maxAge time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

type VerifierOption func(*Verifier)

func WithMaxAssertionAge(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(keys KeyProvider, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys:   keys,
		maxAge: DefaultMaxAssertionAge,
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify never returns an error: every failure maps to a FailureReason.
func (v *Verifier) Verify(ctx context.Context, body []byte, header string) VerificationResult {
	logger := xslog.FromContext(ctx)

	if header == "" {
		return VerificationResult{Reason: ReasonMissingSignature}
	}

	unverified, _, err := v.parser.ParseUnverified(header, &assertionClaims{})
	if err != nil {
		logger.DebugContext(ctx, "undecodable verification header", xslog.Error(err))
		return VerificationResult{Reason: ReasonBadSignature}
	}
	if alg, _ := unverified.Header["alg"].(string); alg != jwt.SigningMethodES256.Alg() {
		return VerificationResult{Reason: ReasonBadSignature}
	}
	keyID, _ := unverified.Header["kid"].(string)
	if keyID == "" {
		return VerificationResult{Reason: ReasonBadSignature}
	}

	key, err := v.keys.GetVerificationKey(ctx, keyID)
	if err != nil {
		return VerificationResult{Reason: ReasonKeyUnavailable, KeyID: keyID}
	}
	if key.IsExpired(v.now()) {
		logger.WarnContext(ctx, "verification key has expired", xslog.KeyID(keyID))
		return VerificationResult{Reason: ReasonKeyUnavailable, KeyID: keyID}
	}
	pub, err := key.PublicKey()
	if err != nil {
		logger.ErrorContext(ctx, "unusable verification key", xslog.KeyID(keyID), xslog.Error(err))
		return VerificationResult{Reason: ReasonKeyUnavailable, KeyID: keyID}
	}

	var claims assertionClaims
	if _, err := v.parser.ParseWithClaims(header, &claims, func(*jwt.Token) (any, error) {
		return pub, nil
	}); err != nil {
		logger.DebugContext(ctx, "assertion signature rejected", xslog.KeyID(keyID), xslog.Error(err))
		return VerificationResult{Reason: ReasonBadSignature, KeyID: keyID}
	}

	if claims.IssuedAt == nil || v.now().Sub(claims.IssuedAt.Time) > v.maxAge {
		return VerificationResult{Reason: ReasonStaleAssertion, KeyID: keyID}
	}

	bodyHash := sha256Hex(body)
	if subtle.ConstantTimeCompare([]byte(bodyHash), []byte(claims.RequestBodySHA256)) != 1 {
		return VerificationResult{Reason: ReasonBodyHashMismatch, KeyID: keyID, BodySHA256: bodyHash}
	}

	return VerificationResult{
		Valid:           true,
		KeyID:           keyID,
		BodySHA256:      bodyHash,
		AssertionSHA256: sha256Hex([]byte(header)),
	}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
