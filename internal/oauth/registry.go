package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kenislabs/arka-gateway/internal/logging"
)

// DefaultExpiryMargin is how far ahead of expiry a cached access token is
// treated as stale. Refreshing early keeps upstream calls from racing the
// expiry instant.
const DefaultExpiryMargin = 60 * time.Second

// Metrics is the observation hook the registry reports into. Implemented
// by internal/instrumentation; a nil Metrics disables reporting.
type Metrics interface {
	RecordTokenResolution(ctx context.Context, providerKey, outcome string)
	RecordTokenRefresh(ctx context.Context, providerKey, status string)
	RecordOAuthAuth(ctx context.Context, providerKey, result string)
}

// Token resolution outcomes reported to Metrics.
const (
	ResolutionCacheHit      = "cache_hit"
	ResolutionStoreHit      = "store_hit"
	ResolutionRefreshed     = "refreshed"
	ResolutionNotAuthorized = "not_authorized"
	ResolutionError         = "error"
)

// Registry owns the provider adapters, the in-memory credential cache and
// the refresh lifecycle. The credential store is the source of truth; the
// cache is derived state that can be dropped at any time.
type Registry struct {
	store        CredentialStore
	logger       *slog.Logger
	metrics      Metrics
	expiryMargin time.Duration

	mu        sync.RWMutex
	providers map[string]Provider
	cache     map[cacheKey]*Credential

	flight singleflight.Group
}

type cacheKey struct {
	providerKey string
	principal   string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithExpiryMargin overrides the expiry safety margin. Used in tests.
func WithExpiryMargin(margin time.Duration) RegistryOption {
	return func(r *Registry) {
		r.expiryMargin = margin
	}
}

// NewRegistry creates a registry over the given credential store.
func NewRegistry(store CredentialStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:        store,
		logger:       slog.Default(),
		expiryMargin: DefaultExpiryMargin,
		providers:    make(map[string]Provider),
		cache:        make(map[cacheKey]*Credential),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a provider adapter under its key. Registration is
// idempotent; registering the same key again replaces the adapter and
// drops any cached credentials for it so stale adapter state cannot leak.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	if _, exists := r.providers[p.Key()]; exists {
		for k := range r.cache {
			if k.providerKey == p.Key() {
				delete(r.cache, k)
			}
		}
	}
	r.providers[p.Key()] = p
	r.mu.Unlock()

	r.logger.Debug("provider registered", logging.Provider(p.Key()))
}

// Provider returns the adapter registered under key.
func (r *Registry) Provider(key string) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, key)
	}
	return p, nil
}

// Keys returns the registered provider keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	return keys
}

// AuthorizeURL builds an authorization URL for the provider with a fresh
// anti-CSRF state, returning both.
func (r *Registry) AuthorizeURL(providerKey string) (authURL, state string, err error) {
	p, err := r.Provider(providerKey)
	if err != nil {
		return "", "", err
	}
	state = uuid.NewString()
	return p.AuthorizeURL(state), state, nil
}

// CompleteAuthorization exchanges the code and persists the credential for
// the principal. The cache entry is replaced so the new grant takes effect
// immediately.
func (r *Registry) CompleteAuthorization(ctx context.Context, providerKey, principal, code string) error {
	p, err := r.Provider(providerKey)
	if err != nil {
		return err
	}

	cred, err := p.Exchange(ctx, code)
	if err != nil {
		r.recordAuth(ctx, providerKey, logging.StatusError)
		r.logger.Warn("authorization exchange failed",
			logging.Provider(providerKey),
			logging.PrincipalHash(principal),
			logging.Err(err))
		return err
	}
	cred.Principal = principal

	if err := r.store.Save(ctx, cred); err != nil {
		r.recordAuth(ctx, providerKey, logging.StatusError)
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	r.setCache(cred)
	r.recordAuth(ctx, providerKey, logging.StatusSuccess)

	r.logger.Info("authorization completed",
		logging.Provider(providerKey),
		logging.PrincipalHash(principal))
	return nil
}

// GetToken returns a usable access token for (provider, principal).
//
// Resolution order: in-memory cache (with expiry margin), then the durable
// store, then a provider refresh. Concurrent callers observing the same
// expired credential are coalesced into a single refresh. No provider is
// ever registered under this key path for an unauthorized principal; the
// ErrNotAuthorized outcome generates no network traffic.
func (r *Registry) GetToken(ctx context.Context, providerKey, principal string) (string, error) {
	if _, err := r.Provider(providerKey); err != nil {
		return "", err
	}

	key := cacheKey{providerKey: providerKey, principal: principal}
	if cred := r.getCache(key); cred != nil && !cred.Expired(r.expiryMargin) {
		r.recordResolution(ctx, providerKey, ResolutionCacheHit)
		return cred.AccessToken, nil
	}

	cred, err := r.resolveSlow(ctx, key, false)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// ForceRefresh refreshes the credential regardless of its apparent expiry.
// Used by the client pool after an upstream 401 on a token the registry
// still believed valid. Coalesced separately from regular resolution so a
// forced refresh cannot be satisfied by the stale cache entry.
func (r *Registry) ForceRefresh(ctx context.Context, providerKey, principal string) (string, error) {
	if _, err := r.Provider(providerKey); err != nil {
		return "", err
	}
	cred, err := r.resolveSlow(ctx, cacheKey{providerKey: providerKey, principal: principal}, true)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// resolveSlow is the store-and-refresh path behind the cache. All callers
// for the same (provider, principal, force) collapse into one flight.
func (r *Registry) resolveSlow(ctx context.Context, key cacheKey, force bool) (*Credential, error) {
	flightKey := key.providerKey + "\x00" + key.principal
	if force {
		flightKey = "force\x00" + flightKey
	}

	v, err, _ := r.flight.Do(flightKey, func() (interface{}, error) {
		// Double-check the cache: a concurrent flight may have refreshed
		// while this caller was queued.
		if !force {
			if cred := r.getCache(key); cred != nil && !cred.Expired(r.expiryMargin) {
				r.recordResolution(ctx, key.providerKey, ResolutionCacheHit)
				return cred, nil
			}
		}

		cred, err := r.store.Load(ctx, key.providerKey, key.principal)
		if err != nil {
			if errors.Is(err, ErrCredentialNotFound) {
				r.recordResolution(ctx, key.providerKey, ResolutionNotAuthorized)
				return nil, fmt.Errorf("%w: provider %s", ErrNotAuthorized, key.providerKey)
			}
			r.recordResolution(ctx, key.providerKey, ResolutionError)
			return nil, fmt.Errorf("failed to load credential: %w", err)
		}

		if !force && !cred.Expired(r.expiryMargin) {
			r.setCache(cred)
			r.recordResolution(ctx, key.providerKey, ResolutionStoreHit)
			return cred, nil
		}

		fresh, err := r.refreshCredential(ctx, cred)
		if err != nil {
			r.recordResolution(ctx, key.providerKey, ResolutionError)
			return nil, err
		}
		r.recordResolution(ctx, key.providerKey, ResolutionRefreshed)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Credential), nil
}

// refreshCredential runs the provider refresh with one transparent retry
// on transient failure, persists the result, then replaces the cache
// entry. Persist-before-cache keeps the store authoritative: if the save
// fails the old credential stays cached and the error surfaces.
func (r *Registry) refreshCredential(ctx context.Context, cred *Credential) (*Credential, error) {
	p, err := r.Provider(cred.ProviderKey)
	if err != nil {
		return nil, err
	}

	logger := logging.WithProvider(r.logger, cred.ProviderKey)

	operation := func() (*RefreshResult, error) {
		res, err := p.Refresh(ctx, cred)
		if err != nil {
			var invalid *RefreshInvalidError
			if errors.As(err, &invalid) {
				return nil, backoff.Permanent(err)
			}
			logger.Warn("token refresh failed, retrying",
				logging.Operation("refresh"),
				logging.PrincipalHash(cred.Principal),
				logging.Err(err))
			return nil, err
		}
		return res, nil
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(2),
	)
	if err != nil {
		var invalid *RefreshInvalidError
		if errors.As(err, &invalid) {
			// The grant is dead. Drop it so future resolutions surface
			// ErrNotAuthorized instead of re-hitting the provider.
			if revokeErr := r.store.Revoke(ctx, cred.ProviderKey, cred.Principal); revokeErr != nil {
				logger.Error("failed to revoke invalid credential",
					logging.PrincipalHash(cred.Principal),
					logging.Err(revokeErr))
			}
			r.dropCache(cacheKey{providerKey: cred.ProviderKey, principal: cred.Principal})
			r.recordRefresh(ctx, cred.ProviderKey, logging.StatusError)
			logger.Warn("refresh token invalidated",
				logging.PrincipalHash(cred.Principal),
				logging.Err(err))
			return nil, err
		}
		r.recordRefresh(ctx, cred.ProviderKey, logging.StatusError)
		return nil, err
	}

	fresh := res.Credential
	if err := r.store.Save(ctx, fresh); err != nil {
		r.recordRefresh(ctx, cred.ProviderKey, logging.StatusError)
		return nil, &TransientProviderError{
			ProviderKey: cred.ProviderKey,
			Err:         fmt.Errorf("failed to persist refreshed credential: %w", err),
		}
	}
	r.setCache(fresh)
	r.recordRefresh(ctx, cred.ProviderKey, logging.StatusSuccess)

	logger.Info("token refreshed",
		logging.Operation("refresh"),
		logging.PrincipalHash(cred.Principal),
		slog.Bool("rotated", res.Rotated))
	return fresh, nil
}

// ValidateCredential checks the stored credential against the provider's
// validation endpoint.
func (r *Registry) ValidateCredential(ctx context.Context, providerKey, principal string) error {
	p, err := r.Provider(providerKey)
	if err != nil {
		return err
	}
	cred, err := r.store.Load(ctx, providerKey, principal)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return fmt.Errorf("%w: provider %s", ErrNotAuthorized, providerKey)
		}
		return fmt.Errorf("failed to load credential: %w", err)
	}
	return p.Validate(ctx, cred)
}

// RevokeCredential removes the stored grant and drops the cache entry.
func (r *Registry) RevokeCredential(ctx context.Context, providerKey, principal string) error {
	if err := r.store.Revoke(ctx, providerKey, principal); err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}
	r.dropCache(cacheKey{providerKey: providerKey, principal: principal})
	return nil
}

// ClearProviderCache drops all cached credentials for the provider. The
// durable store is untouched; subsequent resolutions rebuild the cache
// from it. Clearing an unknown or cold provider is a no-op and succeeds.
func (r *Registry) ClearProviderCache(providerKey string) {
	r.mu.Lock()
	for k := range r.cache {
		if k.providerKey == providerKey {
			delete(r.cache, k)
		}
	}
	r.mu.Unlock()

	r.logger.Info("provider cache cleared", logging.Provider(providerKey))
}

func (r *Registry) getCache(key cacheKey) *Credential {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[key]
}

func (r *Registry) setCache(cred *Credential) {
	r.mu.Lock()
	r.cache[cacheKey{providerKey: cred.ProviderKey, principal: cred.Principal}] = cred
	r.mu.Unlock()
}

func (r *Registry) dropCache(key cacheKey) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}

func (r *Registry) recordResolution(ctx context.Context, providerKey, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordTokenResolution(ctx, providerKey, outcome)
	}
}

func (r *Registry) recordRefresh(ctx context.Context, providerKey, status string) {
	if r.metrics != nil {
		r.metrics.RecordTokenRefresh(ctx, providerKey, status)
	}
}

func (r *Registry) recordAuth(ctx context.Context, providerKey, result string) {
	if r.metrics != nil {
		r.metrics.RecordOAuthAuth(ctx, providerKey, result)
	}
}
