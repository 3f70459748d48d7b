package openapi

import (
	"fmt"
	"regexp"
	"strings"
)

// CompiledRoute is one (regex, method, path-parameter list) triple derived from a
// single (server-prefix, path-template, method) combination. It is immutable once
// built.
type CompiledRoute struct {
	Regex          *regexp.Regexp
	Method         string // always lowercase
	PathParameters []Parameter
}

// Matches reports whether path satisfies this route's anchored regex.
func (r CompiledRoute) Matches(path string) bool {
	return r.Regex.MatchString(path)
}

// Specificity is the number of path parameters on this route. Fewer is more
// specific: a literal path beats a wildcarded one.
func (r CompiledRoute) Specificity() int {
	return len(r.PathParameters)
}

// CompileRoutes turns every (server-prefix, path-template, method) triple declared
// by doc into a CompiledRoute. A malformed parameter name that fails to compile as
// a regex surfaces as a ParseError for the owning upstream — the caller should
// treat that the same as a fetch/parse failure (empty routes for this cycle).
func CompileRoutes(doc *Document, upstreamName string) ([]CompiledRoute, error) {
	var routes []CompiledRoute

	for _, server := range doc.Servers {
		prefix := strings.TrimRight(server.URL, "/")

		for pathTemplate, path := range doc.Paths {
			rawURI := prefix + pathTemplate

			for method := range path.Methods {
				params := PathParameters(path.EffectiveParameters(method))

				pattern, err := compilePattern(rawURI, params)
				if err != nil {
					return nil, &ParseError{Upstream: upstreamName, Err: err}
				}

				routes = append(routes, CompiledRoute{
					Regex:          pattern,
					Method:         strings.ToLower(method),
					PathParameters: params,
				})
			}
		}
	}

	return routes, nil
}

// compilePattern builds the anchored regex for one raw URI, substituting each
// path parameter's escaped `{name}` token with `[^/]*`.
func compilePattern(rawURI string, params []Parameter) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(rawURI)

	for _, p := range params {
		token := regexp.QuoteMeta("{" + p.Name + "}")
		escaped = strings.ReplaceAll(escaped, token, `[^/]*`)
	}

	anchored := "^" + escaped + "$"

	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, fmt.Errorf("compile route pattern %q: %w", anchored, err)
	}
	return re, nil
}
