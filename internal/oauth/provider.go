package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is a minimal adapter for one upstream OAuth provider. Adapters
// are stateless; all persistence and caching live in the Registry.
type Provider interface {
	// Key returns the stable provider key, e.g. "github-mcp".
	Key() string

	// AuthorizeURL builds the user-facing authorization URL carrying the
	// given anti-CSRF state.
	AuthorizeURL(state string) string

	// Exchange trades an authorization code for a credential. The returned
	// credential has ProviderKey set but Principal empty; the caller binds
	// it to a principal before saving.
	Exchange(ctx context.Context, code string) (*Credential, error)

	// Refresh obtains a fresh access token using the credential's refresh
	// token. Returns RefreshInvalidError for permanent rejections and
	// TransientProviderError for retryable ones.
	Refresh(ctx context.Context, cred *Credential) (*RefreshResult, error)

	// Validate checks the credential against the provider's validation
	// endpoint. A nil error means the token is currently usable.
	Validate(ctx context.Context, cred *Credential) error
}

// Config holds the settings one provider adapter needs. Secrets come from
// the environment via internal/config; adapters never read env themselves.
type Config struct {
	Key          string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	ValidateURL  string
	RedirectURL  string
	Scopes       []string

	// ExtraAuthParams are appended to the authorization URL. Used for
	// provider quirks such as Jira's audience parameter.
	ExtraAuthParams map[string]string
}

// Validate reports the first configuration problem as a ConfigurationError.
func (c *Config) Validate() error {
	switch {
	case c.Key == "":
		return &ConfigurationError{ProviderKey: "?", Field: "key", Reason: "must not be empty"}
	case c.ClientID == "":
		return &ConfigurationError{ProviderKey: c.Key, Field: "client_id", Reason: "must not be empty"}
	case c.ClientSecret == "":
		return &ConfigurationError{ProviderKey: c.Key, Field: "client_secret", Reason: "must not be empty"}
	case c.AuthURL == "":
		return &ConfigurationError{ProviderKey: c.Key, Field: "auth_url", Reason: "must not be empty"}
	case c.TokenURL == "":
		return &ConfigurationError{ProviderKey: c.Key, Field: "token_url", Reason: "must not be empty"}
	case c.RedirectURL == "":
		return &ConfigurationError{ProviderKey: c.Key, Field: "redirect_url", Reason: "must not be empty"}
	}
	for _, u := range []string{c.AuthURL, c.TokenURL} {
		if _, err := url.Parse(u); err != nil {
			return &ConfigurationError{ProviderKey: c.Key, Field: "url", Reason: err.Error()}
		}
	}
	return nil
}

// buildAuthorizeURL assembles the authorization URL from config and state.
func buildAuthorizeURL(cfg Config, state string) string {
	params := url.Values{}
	params.Set("client_id", cfg.ClientID)
	params.Set("redirect_uri", cfg.RedirectURL)
	params.Set("response_type", "code")
	params.Set("state", state)
	if len(cfg.Scopes) > 0 {
		params.Set("scope", strings.Join(cfg.Scopes, " "))
	}
	for k, v := range cfg.ExtraAuthParams {
		params.Set(k, v)
	}
	return cfg.AuthURL + "?" + params.Encode()
}

// tokenResponse is the wire shape of an OAuth token endpoint response.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// doTokenRequest posts a form-encoded grant request to the provider's token
// endpoint and decodes the response. OAuth error bodies are surfaced as
// errors carrying the provider's error code so callers can classify them.
func doTokenRequest(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode token response (HTTP %d): %w", resp.StatusCode, err)
	}

	if tr.Error != "" {
		if tr.ErrorDescription != "" {
			return nil, fmt.Errorf("%s: %s", tr.Error, tr.ErrorDescription)
		}
		return nil, fmt.Errorf("%s", tr.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tr, nil
}

// validateWithBearer performs a GET against a validation endpoint with the
// credential's access token. 2xx means valid; 401/403 mean the token is no
// longer usable; anything else is a transient provider problem.
func validateWithBearer(ctx context.Context, client *http.Client, providerKey, validateURL string, cred *Credential, extraHeaders map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create validation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &TransientProviderError{ProviderKey: providerKey, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &RefreshInvalidError{ProviderKey: providerKey, Reason: fmt.Sprintf("validation returned HTTP %d", resp.StatusCode)}
	default:
		return &TransientProviderError{ProviderKey: providerKey, Err: fmt.Errorf("validation returned HTTP %d", resp.StatusCode)}
	}
}

// credentialFromTokenResponse maps a token response onto a credential.
func credentialFromTokenResponse(providerKey string, tr *tokenResponse) *Credential {
	cred := &Credential{
		ProviderKey:  providerKey,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}
	if tr.Scope != "" {
		cred.Scopes = strings.Fields(tr.Scope)
	}
	cred.SetExpiresIn(tr.ExpiresIn)
	return cred
}

// defaultHTTPClient is used by adapters when none is injected. Token and
// validation requests are small; a short timeout keeps refreshes snappy.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
