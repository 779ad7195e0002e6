package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	githubAuthURL     = "https://github.com/login/oauth/authorize"
	githubTokenURL    = "https://github.com/login/oauth/access_token"
	githubValidateURL = "https://api.github.com/user"
)

// GitHubProvider implements the adapter for GitHub OAuth apps. GitHub
// classic tokens do not expire; GitHub App user tokens expire and rotate
// their refresh token on every refresh. Both shapes are handled.
type GitHubProvider struct {
	cfg    Config
	client *http.Client
}

// NewGitHubProvider builds a GitHub adapter from config. Endpoint URLs
// default to github.com and may be overridden for tests.
func NewGitHubProvider(cfg Config, client *http.Client) (*GitHubProvider, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = githubAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = githubTokenURL
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = githubValidateURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &GitHubProvider{cfg: cfg, client: client}, nil
}

func (p *GitHubProvider) Key() string {
	return p.cfg.Key
}

func (p *GitHubProvider) AuthorizeURL(state string) string {
	return buildAuthorizeURL(p.cfg, state)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("redirect_uri", p.cfg.RedirectURL)

	tr, err := doTokenRequest(ctx, p.client, p.cfg.TokenURL, form)
	if err != nil {
		return nil, &AuthExchangeError{ProviderKey: p.cfg.Key, Permanent: isPermanentExchangeError(err), Err: err}
	}
	return credentialFromTokenResponse(p.cfg.Key, tr), nil
}

func (p *GitHubProvider) Refresh(ctx context.Context, cred *Credential) (*RefreshResult, error) {
	if cred.RefreshToken == "" {
		// Non-expiring classic token with nothing to refresh with.
		return nil, &RefreshInvalidError{ProviderKey: p.cfg.Key, Reason: "no refresh token on record"}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", cred.RefreshToken)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	tr, err := doTokenRequest(ctx, p.client, p.cfg.TokenURL, form)
	if err != nil {
		if isPermanentRefreshError(err) {
			return nil, &RefreshInvalidError{ProviderKey: p.cfg.Key, Reason: err.Error()}
		}
		return nil, &TransientProviderError{ProviderKey: p.cfg.Key, Err: err}
	}
	return refreshResultFrom(p.cfg.Key, cred, tr), nil
}

func (p *GitHubProvider) Validate(ctx context.Context, cred *Credential) error {
	return validateWithBearer(ctx, p.client, p.cfg.Key, p.cfg.ValidateURL, cred, map[string]string{
		"Accept": "application/vnd.github+json",
	})
}

// refreshResultFrom builds a RefreshResult, carrying the old refresh token
// forward when the provider did not rotate it.
func refreshResultFrom(providerKey string, old *Credential, tr *tokenResponse) *RefreshResult {
	fresh := credentialFromTokenResponse(providerKey, tr)
	fresh.Principal = old.Principal
	rotated := fresh.RefreshToken != "" && fresh.RefreshToken != old.RefreshToken
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = old.RefreshToken
	}
	if len(fresh.Scopes) == 0 {
		fresh.Scopes = old.Scopes
	}
	return &RefreshResult{Credential: fresh, Rotated: rotated}
}

// isPermanentExchangeError reports whether a code exchange failed because
// the grant itself was rejected rather than a transient provider problem.
func isPermanentExchangeError(err error) bool {
	if err == nil {
		return false
	}
	if isPermanentRefreshError(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"bad_verification_code", "invalid_request", "access_denied", "expired"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
