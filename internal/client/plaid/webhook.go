package plaid

import (
	"context"
	"errors"
	"fmt"

	"github.com/garrettladley/plaidgate/internal/xslog"
)

type webhookService struct {
	client *Client
}

func (s *webhookService) GetVerificationKey(ctx context.Context, keyID string) (*VerificationKey, error) {
	const route = "/webhook_verification_key/get"

	if keyID == "" {
		return nil, errors.New("key id is required")
	}

	var resp verificationKeyResponse
	if err := s.client.do(ctx, route, verificationKeyRequest{KeyID: keyID}, &resp); err != nil {
		return nil, err
	}

	if resp.Key.Kid != "" && resp.Key.Kid != keyID {
		return nil, fmt.Errorf("provider returned key %q for requested key %q", resp.Key.Kid, keyID)
	}

	s.client.logger.DebugContext(ctx, "fetched webhook verification key",
		xslog.KeyID(keyID),
		xslog.PlaidRequestID(resp.RequestID))

	return &resp.Key, nil
}
