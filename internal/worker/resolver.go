package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kenislabs/arka-gateway/internal/logging"
	"github.com/kenislabs/arka-gateway/internal/oauth"
)

// ErrNotAuthorized is the resolver's normalized "user must authorize"
// outcome. It covers both missing grants and permanently rejected refresh
// tokens; either way the fix is re-authorization, not retry.
var ErrNotAuthorized = errors.New("not authorized; complete the provider authorization flow")

// ErrProviderUnavailable is the resolver's normalized transient outcome.
// The grant is presumed good; the provider could not be reached right now.
var ErrProviderUnavailable = errors.New("provider temporarily unavailable")

// Resolver is the stateless bridge between request handling and the
// registry: it picks the principal off the context and normalizes the
// registry's error taxonomy into the two outcomes callers act on.
type Resolver struct {
	registry *oauth.Registry
	logger   *slog.Logger
}

// NewResolver creates a resolver over the registry.
func NewResolver(registry *oauth.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, logger: logger}
}

// ResolveToken returns a usable access token for the provider on behalf of
// the context's principal.
func (r *Resolver) ResolveToken(ctx context.Context, providerKey string) (string, error) {
	principal := PrincipalFromContext(ctx)
	token, err := r.registry.GetToken(ctx, providerKey, principal)
	if err != nil {
		return "", r.normalize(ctx, providerKey, principal, err)
	}
	return token, nil
}

// ForceRefresh refreshes the principal's credential regardless of expiry.
// Used after an upstream 401 on a token the registry believed valid.
func (r *Resolver) ForceRefresh(ctx context.Context, providerKey string) (string, error) {
	principal := PrincipalFromContext(ctx)
	token, err := r.registry.ForceRefresh(ctx, providerKey, principal)
	if err != nil {
		return "", r.normalize(ctx, providerKey, principal, err)
	}
	return token, nil
}

func (r *Resolver) normalize(ctx context.Context, providerKey, principal string, err error) error {
	logger := logging.WithProvider(r.logger, providerKey)

	var invalid *oauth.RefreshInvalidError
	switch {
	case errors.Is(err, oauth.ErrNotAuthorized), errors.As(err, &invalid):
		logger.Debug("token resolution requires authorization",
			logging.PrincipalHash(principal))
		return fmt.Errorf("%w: provider %s", ErrNotAuthorized, providerKey)
	case errors.Is(err, oauth.ErrProviderNotRegistered):
		return err
	default:
		logger.Warn("token resolution failed",
			logging.PrincipalHash(principal),
			logging.Err(err))
		return fmt.Errorf("%w: provider %s: %v", ErrProviderUnavailable, providerKey, err)
	}
}
