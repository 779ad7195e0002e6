// Package server wires the gateway together and exposes its operational
// surface.
//
// ServerContext owns the long-lived dependencies: the credential store,
// the OAuth provider registry, the token resolver, the outbound client
// pool and the upstream service clients. Everything is constructed at
// startup from internal/config so misconfiguration fails fast.
//
// MetricsServer serves Prometheus metrics, Kubernetes health probes and
// maintenance endpoints on a dedicated port, separate from the MCP
// listener. The /admin/cache/clear endpoint drops a provider's cached
// credentials without touching the persisted grants.
package server
