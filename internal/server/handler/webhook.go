package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/garrettladley/plaidgate/internal/service/webhook"
	"github.com/garrettladley/plaidgate/internal/xerrors"
	"github.com/garrettladley/plaidgate/internal/xhttp"
	"github.com/garrettladley/plaidgate/internal/xslog"
)

const headerPlaidVerification = "Plaid-Verification"

const (
	msgUnauthorized     = "Unauthorized webhook"
	msgUnauthorizedInfo = "Webhook signature verification failed"
	msgProcessingFailed = "Failed to process webhook"
)

type Webhook struct {
	service      webhook.Service
	maxBodyBytes int64
}

func NewWebhook(service webhook.Service, maxBodyBytes int64) *Webhook {
	return &Webhook{service: service, maxBodyBytes: maxBodyBytes}
}

type webhookResponse struct {
	Status      webhook.Status `json:"status"`
	WebhookType string         `json:"webhook_type"`
	WebhookCode string         `json:"webhook_code"`
}

// HandleWebhook handles POST /webhook and POST /webhooks/plaid requests.
func (h *Webhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			xerrors.WriteError(ctx, w, xerrors.RequestTooLarge(xerrors.WithMessage("webhook body too large"), xerrors.WithCause(err)))
			return
		}
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("failed to read request body"), xerrors.WithCause(err)))
		return
	}

	outcome, err := h.service.ProcessWebhook(ctx, webhook.ProcessRequest{
		Body:         body,
		Verification: r.Header.Get(headerPlaidVerification),
	})
	if err != nil {
		if _, ok := webhook.AsAuthorizationError(err); ok {
			xerrors.WriteError(ctx, w, xerrors.Unauthorized(
				xerrors.WithMessage(msgUnauthorized),
				xerrors.WithDetails(msgUnauthorizedInfo),
				xerrors.WithCause(err),
			))
			return
		}

		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage(msgProcessingFailed),
			xerrors.WithDetails(err.Error()),
			xerrors.WithCause(err),
		))
		return
	}

	xslog.FromContext(ctx).InfoContext(ctx, "webhook processed",
		xslog.WebhookType(outcome.WebhookType),
		xslog.WebhookCode(outcome.WebhookCode))

	xhttp.WriteOK(w, webhookResponse{
		Status:      outcome.Status,
		WebhookType: outcome.WebhookType,
		WebhookCode: outcome.WebhookCode,
	})
}
