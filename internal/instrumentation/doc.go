// Package instrumentation provides OpenTelemetry metrics for the
// arka-gateway MCP server.
//
// Metrics are exported through a Prometheus pull endpoint served on a
// dedicated port, separate from the MCP transport.
//
// # Metrics
//
// Token lifecycle:
//   - oauth_token_resolutions_total: Counter of token resolutions by provider and outcome
//     (cache_hit, store_hit, refreshed, not_authorized, error)
//   - oauth_token_refresh_total: Counter of refresh attempts by provider and result
//   - oauth_auth_total: Counter of authorization-flow completions by provider and result
//
// Upstream services:
//   - upstream_requests_total: Counter of upstream requests by service and HTTP status
//   - upstream_request_duration_seconds: Histogram of upstream request durations
//
// MCP tools:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - OTEL_SERVICE_NAME: Service name (default: arka-gateway)
//   - PROMETHEUS_ENDPOINT: Metrics endpoint path (default: /metrics)
//   - METRICS_DETAILED_LABELS: Include hashed-principal labels (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "arka-gateway",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordTokenRefresh(ctx, "github-mcp", "success")
//	recorder.RecordToolInvocationWithPrincipal(ctx, "github_list_repos", "success", hash, time.Since(start))
package instrumentation
