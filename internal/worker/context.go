package worker

import "context"

type contextKey string

const principalKey contextKey = "principal"

// DefaultPrincipal is used when a request carries no principal. Single-user
// deployments (stdio transport) run everything under this identity.
const DefaultPrincipal = "default"

// WithPrincipal returns a context carrying the acting principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext returns the principal from the context, or
// DefaultPrincipal when none was set.
func PrincipalFromContext(ctx context.Context) string {
	if principal, ok := ctx.Value(principalKey).(string); ok && principal != "" {
		return principal
	}
	return DefaultPrincipal
}
