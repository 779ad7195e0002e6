package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenislabs/arka-gateway/internal/oauth"
	"github.com/kenislabs/arka-gateway/internal/store"
)

type staticProvider struct {
	key        string
	refreshErr error
}

func (p *staticProvider) Key() string { return p.key }

func (p *staticProvider) AuthorizeURL(string) string { return "https://auth.example.com" }

func (p *staticProvider) Exchange(context.Context, string) (*oauth.Credential, error) {
	return nil, nil
}

func (p *staticProvider) Refresh(_ context.Context, cred *oauth.Credential) (*oauth.RefreshResult, error) {
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return &oauth.RefreshResult{
		Credential: &oauth.Credential{
			ProviderKey:  p.key,
			Principal:    cred.Principal,
			AccessToken:  "refreshed",
			RefreshToken: cred.RefreshToken,
			ExpiresAt:    time.Now().Add(time.Hour),
		},
	}, nil
}

func (p *staticProvider) Validate(context.Context, *oauth.Credential) error { return nil }

func newResolverWithCredential(t *testing.T, p oauth.Provider, cred *oauth.Credential) *Resolver {
	t.Helper()
	s := store.NewMemoryStore()
	if cred != nil {
		require.NoError(t, s.Save(context.Background(), cred))
	}
	reg := oauth.NewRegistry(s)
	reg.Register(p)
	return NewResolver(reg, nil)
}

func TestPrincipalFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, DefaultPrincipal, PrincipalFromContext(ctx))

	ctx = WithPrincipal(ctx, "alice")
	assert.Equal(t, "alice", PrincipalFromContext(ctx))

	// Empty principal falls back to the default.
	assert.Equal(t, DefaultPrincipal, PrincipalFromContext(WithPrincipal(context.Background(), "")))
}

func TestResolveTokenForContextPrincipal(t *testing.T) {
	cred := &oauth.Credential{
		ProviderKey: "github-mcp",
		Principal:   "alice",
		AccessToken: "alice-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	resolver := newResolverWithCredential(t, &staticProvider{key: "github-mcp"}, cred)

	tok, err := resolver.ResolveToken(WithPrincipal(context.Background(), "alice"), "github-mcp")
	require.NoError(t, err)
	assert.Equal(t, "alice-token", tok)
}

func TestResolveTokenNotAuthorized(t *testing.T) {
	resolver := newResolverWithCredential(t, &staticProvider{key: "github-mcp"}, nil)

	_, err := resolver.ResolveToken(WithPrincipal(context.Background(), "alice"), "github-mcp")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestResolveTokenInvalidRefreshNormalizedToNotAuthorized(t *testing.T) {
	p := &staticProvider{
		key:        "github-mcp",
		refreshErr: &oauth.RefreshInvalidError{ProviderKey: "github-mcp", Reason: "invalid_grant"},
	}
	cred := &oauth.Credential{
		ProviderKey:  "github-mcp",
		Principal:    "alice",
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	resolver := newResolverWithCredential(t, p, cred)

	_, err := resolver.ResolveToken(WithPrincipal(context.Background(), "alice"), "github-mcp")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestResolveTokenTransientNormalizedToUnavailable(t *testing.T) {
	p := &staticProvider{
		key:        "github-mcp",
		refreshErr: &oauth.TransientProviderError{ProviderKey: "github-mcp", Err: context.DeadlineExceeded},
	}
	cred := &oauth.Credential{
		ProviderKey:  "github-mcp",
		Principal:    "alice",
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	resolver := newResolverWithCredential(t, p, cred)

	_, err := resolver.ResolveToken(WithPrincipal(context.Background(), "alice"), "github-mcp")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestResolveTokenUnknownProvider(t *testing.T) {
	resolver := newResolverWithCredential(t, &staticProvider{key: "github-mcp"}, nil)

	_, err := resolver.ResolveToken(context.Background(), "unknown-mcp")
	assert.ErrorIs(t, err, oauth.ErrProviderNotRegistered)
}

func TestForceRefresh(t *testing.T) {
	cred := &oauth.Credential{
		ProviderKey:  "github-mcp",
		Principal:    "alice",
		AccessToken:  "still-live",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	resolver := newResolverWithCredential(t, &staticProvider{key: "github-mcp"}, cred)
	ctx := WithPrincipal(context.Background(), "alice")

	tok, err := resolver.ResolveToken(ctx, "github-mcp")
	require.NoError(t, err)
	assert.Equal(t, "still-live", tok)

	tok, err = resolver.ForceRefresh(ctx, "github-mcp")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok)
}
