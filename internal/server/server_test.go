package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenislabs/arka-gateway/internal/config"
)

func newTestServerContext(t *testing.T, metricsEnabled bool) *ServerContext {
	t.Helper()
	cfg := config.Default()
	cfg.Metrics.Enabled = metricsEnabled

	sc, err := NewServerContext(context.Background(), cfg, "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContextWiring(t *testing.T) {
	sc := newTestServerContext(t, false)

	assert.NotNil(t, sc.Registry())
	assert.NotNil(t, sc.Resolver())
	assert.NotNil(t, sc.Pool())
	assert.NotNil(t, sc.Metrics())
	assert.NotNil(t, sc.GitHubClient())
	assert.NotNil(t, sc.JiraClient())
	assert.NotNil(t, sc.SupabaseClient())
	assert.Empty(t, sc.Registry().Keys())
}

func TestNewServerContextRegistersProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = map[string]config.ProviderConfig{
		"github": {
			ClientID:     "gh-id",
			ClientSecret: "gh-secret",
			RedirectURL:  "http://localhost:8080/callback",
		},
	}

	sc, err := NewServerContext(context.Background(), cfg, "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	assert.Equal(t, []string{config.GitHubProviderKey}, sc.Registry().Keys())
}

func TestShutdownIsIdempotent(t *testing.T) {
	sc := newTestServerContext(t, false)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
}

func TestHealthEndpoints(t *testing.T) {
	sc := newTestServerContext(t, false)
	health := NewHealthChecker(sc)

	mux := http.NewServeMux()
	health.RegisterHealthEndpoints(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	health.SetReady(false)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthStatusNotReady, resp.Status)
	assert.Equal(t, healthStatusNotReady, resp.Checks["ready"])
}

func TestReadinessReflectsShutdown(t *testing.T) {
	sc := newTestServerContext(t, false)
	health := NewHealthChecker(sc)
	require.NoError(t, sc.Shutdown())

	rec := httptest.NewRecorder()
	health.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		build       func(t *testing.T) MetricsServerConfig
		expectError string
	}{
		{
			name: "valid config",
			build: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{Addr: ":9090", ServerContext: newTestServerContext(t, true)}
			},
		},
		{
			name: "default addr",
			build: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{ServerContext: newTestServerContext(t, true)}
			},
		},
		{
			name: "nil server context",
			build: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{Addr: ":9090"}
			},
			expectError: "server context is required",
		},
		{
			name: "disabled instrumentation",
			build: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{Addr: ":9090", ServerContext: newTestServerContext(t, false)}
			},
			expectError: "not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewMetricsServer(tt.build(t))
			if tt.expectError != "" {
				assert.ErrorContains(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, srv.Addr())
		})
	}
}

func TestCacheClearHandler(t *testing.T) {
	sc := newTestServerContext(t, true)
	srv, err := NewMetricsServer(MetricsServerConfig{ServerContext: sc})
	require.NoError(t, err)

	handler := srv.cacheClearHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/cache/clear?provider=github-mcp", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cleared", resp["status"])
	assert.Equal(t, "github-mcp", resp["provider"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/cache/clear?provider=github-mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
