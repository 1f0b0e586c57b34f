package xhttp

import (
	"net/http"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("2001:db8:ffff::/48"),
	}

	tests := []struct {
		name       string
		trusted    []netip.Prefix
		remoteAddr string
		forwarded  []string
		want       string
	}{
		{
			name:       "no trusted proxies ignores forwarded header",
			remoteAddr: "198.51.100.9:4242",
			forwarded:  []string{"203.0.113.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "untrusted peer ignores forwarded header",
			trusted:    trusted,
			remoteAddr: "198.51.100.9:4242",
			forwarded:  []string{"203.0.113.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "trusted peer without forwarded header",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:4242",
			want:       "10.1.2.3",
		},
		{
			name:       "trusted peer uses forwarded client",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:4242",
			forwarded:  []string{"203.0.113.1"},
			want:       "203.0.113.1",
		},
		{
			name:       "client-prepended hops are ignored",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:4242",
			forwarded:  []string{"192.0.2.66, 203.0.113.1, 10.9.9.9"},
			want:       "203.0.113.1",
		},
		{
			name:       "hops split across header lines",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:4242",
			forwarded:  []string{"192.0.2.66", "203.0.113.1"},
			want:       "203.0.113.1",
		},
		{
			name:       "garbage hop stops at last trusted address",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:4242",
			forwarded:  []string{"not-an-ip"},
			want:       "10.1.2.3",
		},
		{
			name:       "all hops trusted returns left-most",
			trusted:    trusted,
			remoteAddr: "10.1.2.3:4242",
			forwarded:  []string{"10.4.4.4, 10.5.5.5"},
			want:       "10.4.4.4",
		},
		{
			name:       "ipv6 proxy with port in hop",
			trusted:    trusted,
			remoteAddr: "[2001:db8:ffff::1]:4242",
			forwarded:  []string{"[2001:db8::7]:8080"},
			want:       "2001:db8::7",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "198.51.100.9",
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, _ := http.NewRequest(http.MethodPost, "/webhook", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.forwarded {
				req.Header.Add(XForwardedFor, v)
			}

			if got := ClientIP(req, tt.trusted); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	t.Parallel()

	got, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "192.0.2.10", "", "2001:db8::/32"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies() error = %v", err)
	}
	want := []string{"10.0.0.0/8", "192.0.2.10/32", "2001:db8::/32"}
	gotStrings := make([]string, len(got))
	for i, p := range got {
		gotStrings[i] = p.String()
	}
	if diff := cmp.Diff(want, gotStrings); diff != "" {
		t.Errorf("ParseTrustedProxies() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseTrustedProxies([]string{"10.0.0.0/99"}); err == nil {
		t.Error("ParseTrustedProxies() accepted an invalid prefix")
	}
	if _, err := ParseTrustedProxies([]string{"proxy.internal"}); err == nil {
		t.Error("ParseTrustedProxies() accepted a hostname")
	}
}
