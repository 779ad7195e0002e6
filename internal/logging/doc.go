// Package logging provides structured logging utilities for the arka-gateway
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (principal anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithProvider(slog.Default(), "github-mcp")
//	logger.Info("token refreshed",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("token resolved",
//	    logging.PrincipalHash(principal))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Principal identifiers are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
