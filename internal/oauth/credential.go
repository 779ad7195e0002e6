package oauth

import (
	"context"
	"errors"
	"time"
)

// Credential is a stored grant for one (provider, principal) pair.
// AccessToken and RefreshToken are secrets and must never be logged;
// use logging.SanitizeToken if a length indicator is needed.
type Credential struct {
	ProviderKey  string
	Principal    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scopes       []string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is expired or will expire
// within the given safety margin. A zero ExpiresAt means the token does
// not expire (some providers issue non-expiring tokens).
func (c *Credential) Expired(margin time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(c.ExpiresAt)
}

// SetExpiresIn derives ExpiresAt from a relative expires_in value.
// Non-positive values leave ExpiresAt zero (non-expiring token).
func (c *Credential) SetExpiresIn(seconds int64) {
	if seconds <= 0 {
		c.ExpiresAt = time.Time{}
		return
	}
	c.ExpiresAt = time.Now().Add(time.Duration(seconds) * time.Second)
}

// RefreshResult carries the outcome of a token refresh. Rotated is true
// when the provider issued a new refresh token that must replace the
// stored one; when false the caller keeps the previous refresh token.
type RefreshResult struct {
	Credential *Credential
	Rotated    bool
}

// ErrCredentialNotFound is returned by credential stores when no record
// exists for the requested (provider, principal) pair.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore is the durable source of truth for grants. The registry
// treats its own cache as derived state over this store: cache entries can
// be dropped at any time and rebuilt from here.
type CredentialStore interface {
	// Load returns the stored credential, or ErrCredentialNotFound.
	Load(ctx context.Context, providerKey, principal string) (*Credential, error)

	// Save inserts or replaces the credential for its (provider, principal).
	Save(ctx context.Context, cred *Credential) error

	// Revoke removes the credential. Removing an absent credential is not
	// an error.
	Revoke(ctx context.Context, providerKey, principal string) error
}
