package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrStatus    = "status"
	attrService   = "service"
	attrProvider  = "provider"
	attrOutcome   = "outcome"
	attrResult    = "result"
	attrTool      = "tool"
	attrPrincipal = "principal"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a no-op recorder.
type Metrics struct {
	// Token lifecycle metrics
	tokenResolutionsTotal  metric.Int64Counter
	oauthTokenRefreshTotal metric.Int64Counter
	oauthAuthTotal         metric.Int64Counter

	// Upstream service metrics
	upstreamRequestsTotal   metric.Int64Counter
	upstreamRequestDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.tokenResolutionsTotal, err = meter.Int64Counter(
		"oauth_token_resolutions_total",
		metric.WithDescription("Total number of token resolutions by outcome"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_resolutions_total counter: %w", err)
	}

	m.oauthTokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth authorization completions"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	m.upstreamRequestsTotal, err = meter.Int64Counter(
		"upstream_requests_total",
		metric.WithDescription("Total number of upstream service requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_requests_total counter: %w", err)
	}

	m.upstreamRequestDuration, err = meter.Float64Histogram(
		"upstream_request_duration_seconds",
		metric.WithDescription("Upstream service request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_request_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordTokenResolution records one token resolution outcome.
// Outcome is one of: cache_hit, store_hit, refreshed, not_authorized, error.
func (m *Metrics) RecordTokenResolution(ctx context.Context, providerKey, outcome string) {
	if m.tokenResolutionsTotal == nil {
		return // Instrumentation not initialized
	}

	m.tokenResolutionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrProvider, providerKey),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordTokenRefresh records an OAuth token refresh attempt with result.
// Status should be one of: "success", "error".
func (m *Metrics) RecordTokenRefresh(ctx context.Context, providerKey, status string) {
	if m.oauthTokenRefreshTotal == nil {
		return // Instrumentation not initialized
	}

	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrProvider, providerKey),
		attribute.String(attrResult, status),
	))
}

// RecordOAuthAuth records an authorization-flow completion with result.
// Result should be one of: "success", "failure".
func (m *Metrics) RecordOAuthAuth(ctx context.Context, providerKey, result string) {
	if m.oauthAuthTotal == nil {
		return // Instrumentation not initialized
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrProvider, providerKey),
		attribute.String(attrResult, result),
	))
}

// RecordUpstreamCall records an upstream service request by HTTP status.
// A status of 0 means the request never completed (network failure).
func (m *Metrics) RecordUpstreamCall(ctx context.Context, service string, status int) {
	if m.upstreamRequestsTotal == nil {
		return // Instrumentation not initialized
	}

	m.upstreamRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrStatus, strconv.Itoa(status)),
	))
}

// RecordUpstreamDuration records how long an upstream request took.
func (m *Metrics) RecordUpstreamDuration(ctx context.Context, service string, duration time.Duration) {
	if m.upstreamRequestDuration == nil {
		return // Instrumentation not initialized
	}

	m.upstreamRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrService, service),
	))
}

// RecordToolInvocationWithPrincipal records an MCP tool invocation by tool
// name, status and duration, with the hashed principal attached when
// detailedLabels is enabled. The principal argument must already be
// anonymized by the caller.
func (m *Metrics) RecordToolInvocationWithPrincipal(ctx context.Context, toolName, status, principalHash string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && principalHash != "" {
		attrs = append(attrs, attribute.String(attrPrincipal, principalHash))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
