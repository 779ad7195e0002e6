// Package common provides shared utilities for MCP tool implementations.
// It contains the instrumented handler wrapper and principal helpers used
// across all tool packages to keep behavior consistent.
package common
