package oauth

import (
	"context"
	"net/http"
	"net/url"
)

const (
	supabaseAuthURL     = "https://api.supabase.com/v1/oauth/authorize"
	supabaseTokenURL    = "https://api.supabase.com/v1/oauth/token"
	supabaseValidateURL = "https://api.supabase.com/v1/projects"
)

// SupabaseProvider implements the adapter for the Supabase management API.
// Supabase issues standard refresh_token grants and does not rotate the
// refresh token; a refresh yields a new access token only.
type SupabaseProvider struct {
	cfg    Config
	client *http.Client
}

// NewSupabaseProvider builds a Supabase adapter from config.
func NewSupabaseProvider(cfg Config, client *http.Client) (*SupabaseProvider, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = supabaseAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = supabaseTokenURL
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = supabaseValidateURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &SupabaseProvider{cfg: cfg, client: client}, nil
}

func (p *SupabaseProvider) Key() string {
	return p.cfg.Key
}

func (p *SupabaseProvider) AuthorizeURL(state string) string {
	return buildAuthorizeURL(p.cfg, state)
}

func (p *SupabaseProvider) Exchange(ctx context.Context, code string) (*Credential, error) {
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

func (p *SupabaseProvider) Refresh(ctx context.Context, cred *Credential) (*RefreshResult, error) {
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

func (p *SupabaseProvider) Validate(ctx context.Context, cred *Credential) error {
	return validateWithBearer(ctx, p.client, p.cfg.Key, p.cfg.ValidateURL, cred, nil)
}
