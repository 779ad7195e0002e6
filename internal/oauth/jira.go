package oauth

import (
	"context"
	"net/http"
	"net/url"
)

const (
	jiraAuthURL     = "https://auth.atlassian.com/authorize"
	jiraTokenURL    = "https://auth.atlassian.com/oauth/token"
	jiraValidateURL = "https://api.atlassian.com/oauth/token/accessible-resources"
	jiraAudience    = "api.atlassian.com"
)

// JiraProvider implements the adapter for Atlassian's OAuth 2.0 (3LO).
// Atlassian rotates the refresh token on every refresh; the previous one
// becomes invalid the moment the new one is issued, so persisting the
// rotated token before use is mandatory.
type JiraProvider struct {
	cfg    Config
	client *http.Client
}

// NewJiraProvider builds a Jira adapter from config.
func NewJiraProvider(cfg Config, client *http.Client) (*JiraProvider, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = jiraAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = jiraTokenURL
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = jiraValidateURL
	}
	if cfg.ExtraAuthParams == nil {
		cfg.ExtraAuthParams = map[string]string{}
	}
	if _, ok := cfg.ExtraAuthParams["audience"]; !ok {
		cfg.ExtraAuthParams["audience"] = jiraAudience
	}
	if _, ok := cfg.ExtraAuthParams["prompt"]; !ok {
		cfg.ExtraAuthParams["prompt"] = "consent"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &JiraProvider{cfg: cfg, client: client}, nil
}

func (p *JiraProvider) Key() string {
	return p.cfg.Key
}

func (p *JiraProvider) AuthorizeURL(state string) string {
	return buildAuthorizeURL(p.cfg, state)
}

func (p *JiraProvider) Exchange(ctx context.Context, code string) (*Credential, error) {
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

func (p *JiraProvider) Refresh(ctx context.Context, cred *Credential) (*RefreshResult, error) {
	if cred.RefreshToken == "" {
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

func (p *JiraProvider) Validate(ctx context.Context, cred *Credential) error {
	return validateWithBearer(ctx, p.client, p.cfg.Key, p.cfg.ValidateURL, cred, map[string]string{
		"Accept": "application/json",
	})
}
