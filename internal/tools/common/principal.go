package common

import (
	"context"

	"github.com/kenislabs/arka-gateway/internal/worker"
)

// PrincipalFromArgs binds the acting principal onto the context for the
// duration of a tool call.
//
// Priority order:
//  1. Principal already on the context (set by the transport layer)
//  2. Explicit "principal" argument in the request
//  3. worker.DefaultPrincipal
func PrincipalFromArgs(ctx context.Context, args map[string]interface{}) context.Context {
	if worker.PrincipalFromContext(ctx) != worker.DefaultPrincipal {
		return ctx
	}
	if principal, ok := args["principal"].(string); ok && principal != "" {
		return worker.WithPrincipal(ctx, principal)
	}
	return ctx
}
