// Package oauth implements the provider registry and token lifecycle at
// the core of the gateway.
//
// A Provider adapter wraps one upstream OAuth provider (GitHub, Google,
// Jira, Supabase, and Azure AD in enterprise builds) behind a minimal
// interface: AuthorizeURL, Exchange, Refresh, Validate. Adapters are
// stateless; the Registry owns the credential cache and refresh flow.
//
// The Registry resolves tokens cache-first with a safety margin ahead of
// expiry, coalesces concurrent refreshes for the same (provider,
// principal) pair, and treats the CredentialStore as the source of truth:
// refreshed credentials are persisted before the cache is updated, and
// the cache can be dropped at any time without losing grants.
//
// Access and refresh tokens are secrets. Nothing in this package logs
// token material; log lines carry the provider key and a hashed
// principal only.
package oauth
