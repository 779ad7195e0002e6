package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	azureAuthURLFmt  = "https://login.microsoftonline.com/%s/oauth2/v2.0/authorize"
	azureTokenURLFmt = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	azureValidateURL = "https://graph.microsoft.com/v1.0/me"
)

// AzureADProvider implements the adapter for Azure AD (Microsoft Entra)
// in enterprise builds. It follows the v2.0 endpoints for a single tenant.
type AzureADProvider struct {
	cfg    Config
	client *http.Client
}

// NewAzureADProvider builds an Azure AD adapter for the given tenant.
func NewAzureADProvider(cfg Config, tenantID string, client *http.Client) (*AzureADProvider, error) {
	if tenantID == "" {
		return nil, &ConfigurationError{ProviderKey: cfg.Key, Field: "tenant_id", Reason: "must not be empty"}
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = fmt.Sprintf(azureAuthURLFmt, tenantID)
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = fmt.Sprintf(azureTokenURLFmt, tenantID)
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = azureValidateURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &AzureADProvider{cfg: cfg, client: client}, nil
}

func (p *AzureADProvider) Key() string {
	return p.cfg.Key
}

func (p *AzureADProvider) AuthorizeURL(state string) string {
	return buildAuthorizeURL(p.cfg, state)
}

func (p *AzureADProvider) Exchange(ctx context.Context, code string) (*Credential, error) {
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

func (p *AzureADProvider) Refresh(ctx context.Context, cred *Credential) (*RefreshResult, error) {
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

func (p *AzureADProvider) Validate(ctx context.Context, cred *Credential) error {
	return validateWithBearer(ctx, p.client, p.cfg.Key, p.cfg.ValidateURL, cred, nil)
}

// AzurePlugin contributes the Azure AD provider in enterprise builds.
type AzurePlugin struct {
	Config   Config
	TenantID string
	Client   *http.Client
}

func (p *AzurePlugin) Name() string { return "azure" }

func (p *AzurePlugin) Providers() ([]Provider, error) {
	provider, err := NewAzureADProvider(p.Config, p.TenantID, p.Client)
	if err != nil {
		return nil, err
	}
	return []Provider{provider}, nil
}
