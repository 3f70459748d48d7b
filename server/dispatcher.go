// Package server implements the gateway's HTTP surface: the request dispatcher
// that forwards to the correct upstream (§4.7) and the auxiliary docs endpoints
// (§6) that serve the aggregated documents and a static swagger-ui.
package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"openapi-gateway/config"
	"openapi-gateway/gateway"
	"openapi-gateway/httpclient"
	"openapi-gateway/logger"
)

// DispatchError wraps a failure forwarding a request to an upstream: a malformed
// upstream URL, an unsupported scheme, or a transport-level failure reaching it.
type DispatchError struct {
	Upstream string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: upstream %s: %v", e.Upstream, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher is the gateway's single http.Handler: it routes /docs/* to the
// aggregated documentation and everything else to whichever upstream's routes
// claim the request path and method.
type Dispatcher struct {
	table   *gateway.Table
	clients *httpclient.Set
	cors    *config.CorsConfig
	log     *logger.Logger
}

// New builds a Dispatcher bound to table for routing decisions, clients for
// outbound forwarding, and cfg's global CORS policy (nil disables it).
func New(table *gateway.Table, clients *httpclient.Set, cfg *config.CorsConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{table: table, clients: clients, cors: cfg, log: log}
}

// ServeHTTP implements §4.7: GET /docs short-circuits to static docs first, then
// route selection, then the CORS short-circuit, then rewrite-and-forward.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/docs") {
		d.serveDocs(w, r)
		return
	}

	entry, ok := d.table.Select(r.URL.Path, r.Method)
	if !ok {
		if d.cors != nil && d.table.AnyClaimsPath(r.URL.Path) {
			applyCorsHeaders(w.Header(), d.cors)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
		return
	}

	d.forward(w, r, entry)
}

// serveDocs dispatches among the three /docs endpoints: the swagger-ui config
// index, a single cached document by its base64 name, and the static file tree.
func (d *Dispatcher) serveDocs(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/docs/swagger-config.json":
		d.handleSwaggerConfig(w, r)
	case strings.HasPrefix(r.URL.Path, "/docs/defs/"):
		d.handleSwaggerDef(w, strings.TrimPrefix(r.URL.Path, "/docs/defs/"))
	default:
		handleStaticDocs(w, r)
	}
}

// forward rewrites r's destination to entry's upstream and relays the response,
// decorating it with CORS headers when a global policy is configured.
func (d *Dispatcher) forward(w http.ResponseWriter, r *http.Request, entry gateway.Entry) {
	upstream, err := url.Parse(entry.Config.URL)
	if err != nil {
		d.log.Error("dispatch: %v", &DispatchError{Upstream: entry.Config.Name, Err: err})
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	client, err := d.clients.For(upstream.Scheme)
	if err != nil {
		d.log.Error("dispatch: %v", &DispatchError{Upstream: entry.Config.Name, Err: err})
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	outbound := *r.URL
	outbound.Scheme = upstream.Scheme
	outbound.Host = upstream.Host

	req, err := http.NewRequestWithContext(r.Context(), r.Method, outbound.String(), r.Body)
	if err != nil {
		d.log.Error("dispatch: %v", &DispatchError{Upstream: entry.Config.Name, Err: err})
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()
	req.Host = upstream.Hostname()

	resp, err := client.Do(req)
	if err != nil {
		d.log.Warn("dispatch: %v", &DispatchError{Upstream: entry.Config.Name, Err: err})
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if d.cors != nil {
		applyCorsHeaders(w.Header(), d.cors)
	}

	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
