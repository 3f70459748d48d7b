// Package fetcher performs the single outbound GET that retrieves an upstream's
// OpenAPI document.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"openapi-gateway/httpclient"
	"openapi-gateway/openapi"
)

// FetchError reports a transport failure contacting an upstream. It is never
// fatal: the containing gateway entry becomes empty for the current refresh
// cycle.
type FetchError struct {
	Upstream string
	Err      error
}

func (e *FetchError) Error() string {
	return "fetcher: fetch " + e.Upstream + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is a successfully fetched document: its raw bytes plus the content kind
// (JSON/YAML) selected for parsing.
type Result struct {
	Bytes       []byte
	ContentType string
	Kind        openapi.ContentKind
}

// Fetch performs a single GET against rawURL using the client selected for its
// scheme. http and https are supported; any other scheme fails the fetch.
func Fetch(ctx context.Context, clients *httpclient.Set, upstreamName, rawURL string) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{Upstream: upstreamName, Err: err}
	}

	client, err := clients.For(parsed.Scheme)
	if err != nil {
		return nil, &FetchError{Upstream: upstreamName, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Upstream: upstreamName, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Upstream: upstreamName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Upstream: upstreamName, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Upstream: upstreamName, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	kind := openapi.DetectContentKind(contentType, rawURL)

	return &Result{Bytes: body, ContentType: contentType, Kind: kind}, nil
}
