package xslog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/garrettladley/plaidgate/internal/version"
	"github.com/garrettladley/plaidgate/internal/xhttp"
)

const (
	keyError = "error"
)

func Error(err error) slog.Attr {
	return slog.String(keyError, err.Error())
}

func ErrorAny(err any) slog.Attr {
	return slog.Any(keyError, err)
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func Stack() slog.Attr {
	const stackKey = "stack"
	return slog.String(stackKey, string(debug.Stack()))
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func RequestMethod(r *http.Request) slog.Attr {
	const methodKey = "method"
	return slog.String(methodKey, r.Method)
}

func RequestPath(r *http.Request) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, r.URL.Path)
}

func IP(ip string) slog.Attr {
	const ipKey = "ip"
	return slog.String(ipKey, ip)
}

func RequestIP(r *http.Request) slog.Attr {
	return IP(xhttp.GetRequestIP(r))
}

func Version() slog.Attr {
	const versionKey = "version"
	return slog.String(versionKey, version.Get())
}

func WebhookType(webhookType string) slog.Attr {
	const webhookTypeKey = "webhook_type"
	return slog.String(webhookTypeKey, webhookType)
}

func WebhookCode(webhookCode string) slog.Attr {
	const webhookCodeKey = "webhook_code"
	return slog.String(webhookCodeKey, webhookCode)
}

func ItemID(itemID string) slog.Attr {
	const itemIDKey = "item_id"
	return slog.String(itemIDKey, itemID)
}

func KeyID(keyID string) slog.Attr {
	const keyIDKey = "key_id"
	return slog.String(keyIDKey, keyID)
}

func Reason(reason string) slog.Attr {
	const reasonKey = "reason"
	return slog.String(reasonKey, reason)
}

func PlaidRequestID(requestID string) slog.Attr {
	const plaidRequestIDKey = "plaid_request_id"
	return slog.String(plaidRequestIDKey, requestID)
}

func PlaidEnvironment(env string) slog.Attr {
	const plaidEnvKey = "plaid_env"
	return slog.String(plaidEnvKey, env)
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}
