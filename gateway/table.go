package gateway

import (
	"sync"

	"openapi-gateway/config"
)

// Table is the ordered sequence of gateway entries, one per configured upstream,
// fixed in length and order at process start. It is safe for concurrent read by
// many request handlers and occasional bulk write by the refresh scheduler.
//
// Readers hold the read lock only long enough to select a matching entry and copy
// the fields needed to rewrite the forwarded request; the upstream call itself
// happens after the lock is released. Writers hold the write lock only long
// enough to swap entries by index — all fetching, parsing, and compiling happens
// outside any lock.
type Table struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewTable builds a table with one empty slot per configured upstream, in config
// order. Every slot starts in the Empty state (§4.9): no document, no routes.
func NewTable(upstreams []config.OpenApiConfig) *Table {
	entries := make([]Entry, len(upstreams))
	for i, cfg := range upstreams {
		entries[i] = Entry{Config: cfg}
	}
	return &Table{entries: entries}
}

// Snapshot returns a copy of the current entries, safe to range over without
// holding any lock.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Configs returns the configured upstreams in slot order, for the refresh
// scheduler to fan out fetches over.
func (t *Table) Configs() []config.OpenApiConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]config.OpenApiConfig, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Config
	}
	return out
}

// Replace installs freshEntries by index. len(freshEntries) must equal the
// table's fixed length; it is the caller's responsibility to produce one fresh
// entry per slot (in the same order Configs returned them), including Empty
// entries for upstreams whose fetch or parse failed this cycle.
func (t *Table) Replace(freshEntries []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if i < len(freshEntries) {
			t.entries[i] = freshEntries[i]
		}
	}
}

// Select returns the single best matching entry for (path, method), per §4.7
// Step B: fewest path parameters wins, ties broken by first-occurrence (config)
// order. The winning route itself is not returned.
func (t *Table) Select(path, method string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var bestEntry Entry
	var bestSpecificity int
	found := false

	for _, e := range t.entries {
		route, ok := e.BestMatch(path, method)
		if !ok {
			continue
		}
		if !found || route.Specificity() < bestSpecificity {
			bestEntry = e
			bestSpecificity = route.Specificity()
			found = true
		}
	}

	return bestEntry, found
}

// AnyClaimsPath reports whether some entry claims path regardless of method, used
// by the CORS short-circuit.
func (t *Table) AnyClaimsPath(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.entries {
		if e.ClaimsPath(path) {
			return true
		}
	}
	return false
}
