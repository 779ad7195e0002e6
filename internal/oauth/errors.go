package oauth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAuthorized indicates that no credential exists for the requested
// (provider, principal) pair. The caller must send the user through the
// authorization flow; no network traffic is generated for this outcome.
var ErrNotAuthorized = errors.New("principal has not authorized this provider")

// ErrProviderNotRegistered indicates a lookup against a provider key that
// no adapter was registered under.
var ErrProviderNotRegistered = errors.New("provider not registered")

// RefreshInvalidError indicates the provider permanently rejected the
// refresh token (revoked, expired, or already rotated away). The stored
// credential has been invalidated and the user must re-authorize.
type RefreshInvalidError struct {
	ProviderKey string
	Reason      string
}

func (e *RefreshInvalidError) Error() string {
	return fmt.Sprintf("refresh token invalid for provider %s: %s", e.ProviderKey, e.Reason)
}

// TransientProviderError indicates a temporary failure talking to the
// provider (network error, 5xx, timeout). The stored credential is still
// presumed good and the operation may be retried.
type TransientProviderError struct {
	ProviderKey string
	Err         error
}

func (e *TransientProviderError) Error() string {
	return fmt.Sprintf("provider %s temporarily unavailable: %v", e.ProviderKey, e.Err)
}

func (e *TransientProviderError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates the provider cannot operate because its
// configuration is missing or malformed. Raised at registration time so
// misconfiguration is a startup failure, not a request-time surprise.
type ConfigurationError struct {
	ProviderKey string
	Field       string
	Reason      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s misconfigured (%s): %s", e.ProviderKey, e.Field, e.Reason)
}

// AuthExchangeError indicates the authorization-code exchange failed.
// Permanent is true when the provider rejected the grant itself
// (invalid or expired code) rather than failing transiently.
type AuthExchangeError struct {
	ProviderKey string
	Permanent   bool
	Err         error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("code exchange failed for provider %s: %v", e.ProviderKey, e.Err)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}

// permanentRefreshMarkers are substrings that identify a refresh rejection
// the provider will never reconsider. Anything else is treated as transient.
var permanentRefreshMarkers = []string{
	"invalid_grant",
	"invalid_token",
	"unauthorized_client",
	"token has been expired or revoked",
	"token_revoked",
	"refresh token is invalid",
}

// isPermanentRefreshError reports whether err describes a refresh rejection
// that re-trying cannot fix.
func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentRefreshMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
