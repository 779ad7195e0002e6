package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// ServerContext supplies the instrumentation provider, the registry
	// for admin operations and the health checker dependencies.
	ServerContext *ServerContext

	// HealthChecker backs the /healthz and /readyz endpoints. Optional;
	// a default checker is created when nil.
	HealthChecker *HealthChecker
}

// MetricsServer serves Prometheus metrics, health probes and maintenance
// endpoints on a dedicated port, keeping them off the MCP listener.
type MetricsServer struct {
	httpServer *http.Server
	sc         *ServerContext
	health     *HealthChecker
	addr       string
}

// NewMetricsServer creates a new metrics server with the given configuration.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.ServerContext == nil {
		return nil, fmt.Errorf("server context is required for metrics server")
	}
	if !config.ServerContext.Instrumentation().Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	health := config.HealthChecker
	if health == nil {
		health = NewHealthChecker(config.ServerContext)
	}
	return &MetricsServer{
		addr:   config.Addr,
		sc:     config.ServerContext,
		health: health,
	}, nil
}

// Start starts the metrics server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *MetricsServer) Start() error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", s.sc.Instrumentation().PrometheusHandler())
	s.health.RegisterHealthEndpoints(mux)
	mux.Handle("/admin/cache/clear", s.cacheClearHandler())

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	s.sc.Logger().Info("starting metrics server", slog.String("addr", s.addr))
	return s.httpServer.ListenAndServe()
}

// cacheClearHandler drops the registry's cached credentials for one
// provider. The persisted grants are untouched; clearing a provider with
// no cached entries succeeds. Stored tokens remain valid, so this is a
// maintenance action, not a revocation.
func (s *MetricsServer) cacheClearHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		providerKey := r.URL.Query().Get("provider")
		if providerKey == "" {
			http.Error(w, "provider query parameter is required", http.StatusBadRequest)
			return
		}

		s.sc.Registry().ClearProviderCache(providerKey)
		s.sc.Logger().Info("provider cache cleared", slog.String("provider", providerKey))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":   "cleared",
			"provider": providerKey,
		})
	})
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.sc.Logger().Info("shutting down metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}
