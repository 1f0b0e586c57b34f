package middleware

import (
	"net/http"
	"net/netip"

	"github.com/garrettladley/plaidgate/internal/metrics"
	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/garrettladley/plaidgate/internal/xerrors"
	"github.com/garrettladley/plaidgate/internal/xhttp"
	"github.com/garrettladley/plaidgate/internal/xslog"
)

const reasonIPRateLimit = "ip_rate_limit"

// RateLimit applies IP-based rate limiting keyed on xhttp.ClientIP, so
// X-Forwarded-For counts only when it was set by one of the trusted proxies.
// A limiter failure rejects the request with 503.
func RateLimit(limiter storage.RateLimiter, m *metrics.Webhook, trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := xhttp.ClientIP(r, trusted)

			result, err := limiter.Allow(ctx, ip)
			if err != nil {
				xerrors.WriteError(ctx, w, xerrors.ServiceUnavailable(
					xerrors.WithMessage("rate limit check failed"),
					xerrors.WithCause(err),
				))
				return
			}

			if !result.Allowed {
				xslog.FromContext(ctx).WarnContext(ctx, "request rate limited", xslog.IP(ip))
				m.ObserveRateLimited()
				xerrors.WriteError(ctx, w, xerrors.TooManyRequests(
					xerrors.WithRetryAfter(result.RetryAfter),
					xerrors.WithReason(reasonIPRateLimit),
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
