package webhook

import (
	"errors"
	"fmt"
)

// FailureReason classifies why a webhook failed verification. Reasons are
// logged and counted but never sent to the caller.
type FailureReason string

const (
	ReasonMissingSignature FailureReason = "MissingSignature"
	ReasonKeyUnavailable   FailureReason = "KeyUnavailable"
	ReasonBadSignature     FailureReason = "BadSignature"
	ReasonBodyHashMismatch FailureReason = "BodyHashMismatch"
	ReasonStaleAssertion   FailureReason = "StaleAssertion"
)

var (
	ErrMalformedEnvelope = errors.New("malformed webhook envelope")
	ErrKeyFetch          = errors.New("verification key fetch failed")
	ErrHandlerConflict   = errors.New("webhook handler already registered")
)

// AuthorizationError is returned when a webhook fails verification.
type AuthorizationError struct {
	Reason FailureReason
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("webhook verification failed: %s", e.Reason)
}

func AsAuthorizationError(err error) (*AuthorizationError, bool) {
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
