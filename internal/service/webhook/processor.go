package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/garrettladley/plaidgate/internal/metrics"
	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/garrettladley/plaidgate/internal/xslog"
	"github.com/google/uuid"
)

// SignatureVerifier checks a webhook body against its verification header.
type SignatureVerifier interface {
	Verify(ctx context.Context, body []byte, header string) VerificationResult
}

type Processor struct {
	verifier SignatureVerifier
	router   *Router
	ledger   storage.DeliveryLedger
	metrics  *metrics.Webhook
	now      func() time.Time
}

var _ Service = (*Processor)(nil)

type ProcessorOption func(*Processor)

// WithLedger enables replay suppression: a verified assertion already recorded
// in the ledger is acknowledged without being routed again. Distinct sends of
// the same body carry distinct assertions and are all routed.
func WithLedger(ledger storage.DeliveryLedger) ProcessorOption {
	return func(p *Processor) { p.ledger = ledger }
}

func WithProcessorMetrics(m *metrics.Webhook) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

func NewProcessor(verifier SignatureVerifier, router *Router, opts ...ProcessorOption) *Processor {
	p := &Processor{
		verifier: verifier,
		router:   router,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) ProcessWebhook(ctx context.Context, req ProcessRequest) (Outcome, error) {
	logger := xslog.FromContext(ctx)

	result := p.verifier.Verify(ctx, req.Body, req.Verification)
	if !result.Valid {
		logger.WarnContext(ctx, "webhook verification failed",
			xslog.Reason(string(result.Reason)),
			xslog.KeyID(result.KeyID))
		p.metrics.ObserveRejection(string(result.Reason))
		return Outcome{Status: StatusRejected}, &AuthorizationError{Reason: result.Reason}
	}

	env, err := ParseEnvelope(req.Body)
	if err != nil {
		p.metrics.ObserveOutcome("", "", string(StatusError))
		return Outcome{Status: StatusError}, err
	}

	if p.ledger != nil {
		delivery := storage.Delivery{
			ID:              uuid.NewString(),
			AssertionSHA256: result.AssertionSHA256,
			BodySHA256:      result.BodySHA256,
			WebhookType:     env.WebhookType,
			WebhookCode:     env.WebhookCode,
			ItemID:          env.ItemID,
			ReceivedAt:      p.now(),
		}
		switch err := p.ledger.Record(ctx, delivery); {
		case errors.Is(err, storage.ErrDuplicate):
			logger.InfoContext(ctx, "duplicate webhook delivery acknowledged",
				xslog.WebhookGroup(env.WebhookType, env.WebhookCode, env.ItemID))
			p.metrics.ObserveDuplicate()
			outcome := Outcome{Status: StatusProcessed, WebhookType: env.WebhookType, WebhookCode: env.WebhookCode}
			p.metrics.ObserveOutcome(outcome.WebhookType, outcome.WebhookCode, string(outcome.Status))
			return outcome, nil
		case err != nil:
			logger.ErrorContext(ctx, "failed to record webhook delivery", xslog.Error(err))
		}
	}

	outcome, err := p.router.Route(ctx, env)
	p.metrics.ObserveOutcome(outcome.WebhookType, outcome.WebhookCode, string(outcome.Status))
	if err != nil {
		if p.ledger != nil {
			if ferr := p.ledger.Forget(ctx, result.AssertionSHA256); ferr != nil {
				logger.ErrorContext(ctx, "failed to forget webhook delivery", xslog.Error(ferr))
			}
		}
		return outcome, err
	}

	return outcome, nil
}
