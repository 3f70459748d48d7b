package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openapi-gateway/config"
	"openapi-gateway/openapi"
)

func mustCompile(t *testing.T, rawURI string, params []openapi.Parameter, method string) openapi.CompiledRoute {
	t.Helper()
	doc := &openapi.Document{
		Servers: []openapi.Server{{URL: "/"}},
		Paths: map[string]openapi.Path{
			rawURI: {
				Methods: map[string]openapi.MethodRecord{method: {Parameters: params}},
			},
		},
	}
	routes, err := openapi.CompileRoutes(doc, "svc")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	return routes[0]
}

func TestEntryBestMatchMethodCaseInsensitive(t *testing.T) {
	route := mustCompile(t, "/accounts/{id}", []openapi.Parameter{{Name: "id", In: "path"}}, "get")
	e := Entry{Config: config.OpenApiConfig{Name: "accounts"}, Routes: []openapi.CompiledRoute{route}}

	_, ok := e.BestMatch("/accounts/7", "GET")
	assert.True(t, ok)

	_, ok = e.BestMatch("/accounts/7", "get")
	assert.True(t, ok)

	_, ok = e.BestMatch("/accounts/7", "DELETE")
	assert.False(t, ok)
}

func TestEntryClaimsPathIgnoresMethod(t *testing.T) {
	route := mustCompile(t, "/accounts/{id}", []openapi.Parameter{{Name: "id", In: "path"}}, "get")
	e := Entry{Config: config.OpenApiConfig{Name: "accounts"}, Routes: []openapi.CompiledRoute{route}}

	assert.True(t, e.ClaimsPath("/accounts/7"))
	assert.False(t, e.ClaimsPath("/unrelated"))
}

func TestEntryBestMatchPrefersMostSpecific(t *testing.T) {
	literal := mustCompile(t, "/accounts/me", nil, "get")
	templated := mustCompile(t, "/accounts/{id}", []openapi.Parameter{{Name: "id", In: "path"}}, "get")

	e := Entry{
		Config: config.OpenApiConfig{Name: "accounts"},
		Routes: []openapi.CompiledRoute{templated, literal},
	}

	best, ok := e.BestMatch("/accounts/me", "get")
	require.True(t, ok)
	assert.Equal(t, 0, best.Specificity())
}

func TestEntryEmptyStateNeverClaims(t *testing.T) {
	e := Entry{Config: config.OpenApiConfig{Name: "down"}}
	assert.False(t, e.ClaimsPath("/anything"))
	_, ok := e.BestMatch("/anything", "get")
	assert.False(t, ok)
}
