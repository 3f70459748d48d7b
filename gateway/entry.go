// Package gateway holds the routing table: the process-wide, atomically swappable
// sequence of gateway entries that the dispatcher reads on every request and the
// refresh scheduler replaces wholesale on every cron tick.
package gateway

import (
	"strings"

	"openapi-gateway/config"
	"openapi-gateway/openapi"
)

// DocumentBytes is the raw bytes of a successfully fetched OpenAPI document, plus
// the content-type label captured at fetch time (served verbatim by the docs
// endpoints).
type DocumentBytes struct {
	Bytes       []byte
	ContentType string
}

// Entry binds one upstream's static config to its most recently fetched document
// and compiled routes. When the last fetch or parse failed, DocumentBytes is nil
// and Routes is empty — the entry is retried wholesale on the next refresh cycle.
type Entry struct {
	Config        config.OpenApiConfig
	DocumentBytes *DocumentBytes
	Routes        []openapi.CompiledRoute
}

// Claims reports whether some route in this entry matches path and, case
// insensitively, method.
func (e Entry) Claims(path, method string) bool {
	_, ok := e.BestMatch(path, method)
	return ok
}

// ClaimsPath reports whether some route in this entry matches path, ignoring
// method. Used for the CORS short-circuit in §4.7 Step C.
func (e Entry) ClaimsPath(path string) bool {
	for _, r := range e.Routes {
		if r.Matches(path) {
			return true
		}
	}
	return false
}

// BestMatch returns the most specific route (fewest path parameters, ties broken
// by position in Routes) among this entry's routes that match (path, method).
func (e Entry) BestMatch(path, method string) (openapi.CompiledRoute, bool) {
	lowerMethod := strings.ToLower(method)

	var best openapi.CompiledRoute
	found := false

	for _, r := range e.Routes {
		if r.Method != lowerMethod {
			continue
		}
		if !r.Matches(path) {
			continue
		}
		if !found || r.Specificity() < best.Specificity() {
			best = r
			found = true
		}
	}

	return best, found
}
