package server

import (
	"net/http"
	"strings"

	"openapi-gateway/config"
)

// applyCorsHeaders overwrites the three CORS headers in h, derived from cfg's fields in configuration order. It is a pure header-building
// helper, not a preflight negotiator — the gateway injects one static header set
// rather than evaluating Origin/Access-Control-Request-* against it.
func applyCorsHeaders(h http.Header, cfg *config.CorsConfig) {
	if cfg == nil {
		return
	}

	h.Set("Access-Control-Allow-Origin", cfg.AllowedOrigin)

	methods := make([]string, len(cfg.AllowedMethods))
	for i, m := range cfg.AllowedMethods {
		methods[i] = string(m)
	}
	h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))

	h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
}
