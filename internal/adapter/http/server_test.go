package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/disaster-watch-service/internal/adapter/http"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthServer(checkers ...httpadapter.ReadinessChecker) *httpadapter.Server {
	return httpadapter.NewServer(":0", httpadapter.Deps{
		Ready:     checkers,
		JWTSecret: testSecret,
		Metrics:   observability.NewMetricsForTesting(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newHealthServer(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newHealthServer(&mockReadiness{}, &mockReadiness{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenAnyCheckFails(t *testing.T) {
	rec := get(newHealthServer(&mockReadiness{}, &mockReadiness{err: errors.New("hazard snapshot not loaded")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "hazard snapshot not loaded", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newHealthServer(), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRouteReturns404(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(newHealthServer(), "/nope").Code)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		token  string
		want   int
	}{
		{"preferences need a token", http.MethodGet, "/api/preferences", "", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/preferences", "", "not-a-jwt", http.StatusUnauthorized},
		{"valid user token", http.MethodGet, "/api/preferences", "", signToken(t, "u1", "user"), http.StatusOK},
		{"admin route as user", http.MethodDelete, "/api/admin/articles/a1", "", signToken(t, "u1", "user"), http.StatusForbidden},
		{"admin route as admin", http.MethodDelete, "/api/admin/articles/a1", "", signToken(t, "root", "admin"), http.StatusNotFound},
		{"public route anonymous", http.MethodGet, "/api/alerts", "", "", http.StatusOK},
		{"public route rejects bad token", http.MethodGet, "/api/alerts", "", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(tc.method, tc.target, tc.body, tc.token)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	other := httpadapter.NewServer(":0", httpadapter.Deps{
		JWTSecret: "another-secret",
		Metrics:   observability.NewMetricsForTesting(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1", "user"))
	rec := httptest.NewRecorder()
	other.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
