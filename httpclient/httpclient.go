// Package httpclient provides the gateway's outbound HTTP transport: one client
// per scheme (http, https), selected by the request's own URL scheme rather than
// any dynamic dispatch, mirroring the original gateway's split hyper/hyper-rustls
// clients.
package httpclient

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// Set holds the gateway's two outbound clients.
type Set struct {
	http  *http.Client
	https *http.Client
}

// New builds a Set with a plain HTTP client and a TLS client that trusts the
// system root store (Go's equivalent of WebPKI roots).
func New() *Set {
	return &Set{
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &http.Transport{},
		},
		https: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
	}
}

// For selects the client for a request's scheme. Any scheme other than http/https
// is rejected — the gateway never dials anything else.
func (s *Set) For(scheme string) (*http.Client, error) {
	switch scheme {
	case "http":
		return s.http, nil
	case "https":
		return s.https, nil
	default:
		return nil, fmt.Errorf("httpclient: unsupported scheme %q", scheme)
	}
}
