package xhttp

import (
	"fmt"
	"net/http"

	"github.com/garrettladley/plaidgate/internal/version"
)

type plaidgateTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*plaidgateTransport)(nil)

func (t *plaidgateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set(UserAgent, "plaidgate/"+version.Get())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// NewTransport returns an http.RoundTripper with standard plaidgate headers.
func NewTransport() http.RoundTripper {
	return &plaidgateTransport{base: http.DefaultTransport}
}
