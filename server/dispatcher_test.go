package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openapi-gateway/config"
	"openapi-gateway/gateway"
	"openapi-gateway/httpclient"
	"openapi-gateway/logger"
	"openapi-gateway/openapi"
)

func routeFor(t *testing.T, rawURI, method string, params []openapi.Parameter) openapi.CompiledRoute {
	t.Helper()
	doc := &openapi.Document{
		Servers: []openapi.Server{{URL: "/"}},
		Paths:   map[string]openapi.Path{rawURI: {Methods: map[string]openapi.MethodRecord{method: {Parameters: params}}}},
	}
	routes, err := openapi.CompileRoutes(doc, "svc")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	return routes[0]
}

func TestDispatcherForwardsToClaimedUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/widgets/7", r.URL.Path)
		w.Header().Set("X-Upstream", "widgets")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hello"))
	}))
	defer upstream.Close()

	cfg := config.OpenApiConfig{Name: "widgets", URL: upstream.URL}
	table := gateway.NewTable([]config.OpenApiConfig{cfg})
	route := routeFor(t, "/widgets/{id}", "get", []openapi.Parameter{{Name: "id", In: "path"}})
	table.Replace([]gateway.Entry{{Config: cfg, Routes: []openapi.CompiledRoute{route}}})

	d := New(table, httpclient.New(), nil, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodGet, "/widgets/7", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "widgets", w.Header().Get("X-Upstream"))
}

func TestDispatcherForwardedHostHeaderDropsPort(t *testing.T) {
	var gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	// httptest.NewServer always binds to a port-bearing 127.0.0.1 address, so this
	// upstream is guaranteed to carry an explicit port for the rule to matter on.
	cfg := config.OpenApiConfig{Name: "widgets", URL: upstream.URL}
	table := gateway.NewTable([]config.OpenApiConfig{cfg})
	route := routeFor(t, "/widgets", "get", nil)
	table.Replace([]gateway.Entry{{Config: cfg, Routes: []openapi.CompiledRoute{route}}})

	d := New(table, httpclient.New(), nil, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, gotHost, ":")
}

func TestDispatcherUnclaimedPathIs404WithoutCors(t *testing.T) {
	table := gateway.NewTable(nil)
	d := New(table, httpclient.New(), nil, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodGet, "/nothing", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatcherMethodMismatchWithCorsShortCircuits(t *testing.T) {
	cfg := config.OpenApiConfig{Name: "widgets", URL: "http://upstream.invalid"}
	table := gateway.NewTable([]config.OpenApiConfig{cfg})
	route := routeFor(t, "/widgets/{id}", "get", []openapi.Parameter{{Name: "id", In: "path"}})
	table.Replace([]gateway.Entry{{Config: cfg, Routes: []openapi.CompiledRoute{route}}})

	cors := &config.CorsConfig{
		AllowedOrigin:  "https://dashboard.example.com",
		AllowedMethods: []config.HTTPMethod{config.MethodGet, config.MethodPost},
		AllowedHeaders: []string{"X-Request-Id"},
	}
	d := New(table, httpclient.New(), cors, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodPost, "/widgets/7", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDispatcherMethodMismatchWithoutCorsIs404(t *testing.T) {
	cfg := config.OpenApiConfig{Name: "widgets", URL: "http://upstream.invalid"}
	table := gateway.NewTable([]config.OpenApiConfig{cfg})
	route := routeFor(t, "/widgets/{id}", "get", []openapi.Parameter{{Name: "id", In: "path"}})
	table.Replace([]gateway.Entry{{Config: cfg, Routes: []openapi.CompiledRoute{route}}})

	d := New(table, httpclient.New(), nil, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodPost, "/widgets/7", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatcherDocsShortCircuitIsGetOnly(t *testing.T) {
	table := gateway.NewTable(nil)
	d := New(table, httpclient.New(), nil, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodPost, "/docs/swagger-config.json", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	// No upstream claims /docs, so a POST must fall through to dispatch and 404
	// rather than being served the swagger-config index.
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatcherUpstreamUnreachableIsBadGateway(t *testing.T) {
	cfg := config.OpenApiConfig{Name: "widgets", URL: "http://127.0.0.1:1"}
	table := gateway.NewTable([]config.OpenApiConfig{cfg})
	route := routeFor(t, "/widgets", "get", nil)
	table.Replace([]gateway.Entry{{Config: cfg, Routes: []openapi.CompiledRoute{route}}})

	d := New(table, httpclient.New(), nil, logger.New("test", logger.ERROR))

	req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
