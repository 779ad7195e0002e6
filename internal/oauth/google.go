package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserinfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
	googleTasksListURL = "https://tasks.googleapis.com/tasks/v1/users/@me/lists?maxResults=1"
)

// GoogleProvider implements the adapter for Google OAuth. The Tasks
// variant is the same adapter with a Tasks-scoped validation endpoint;
// see NewGoogleTasksProvider.
type GoogleProvider struct {
	key         string
	oauthCfg    *oauth2.Config
	validateURL string
	client      *http.Client
}

// NewGoogleProvider builds a Google adapter. The validation endpoint
// defaults to the OIDC userinfo endpoint.
func NewGoogleProvider(cfg Config, client *http.Client) (*GoogleProvider, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = google.Endpoint.AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = google.Endpoint.TokenURL
	}
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = googleUserinfoURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &GoogleProvider{
		key: cfg.Key,
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		validateURL: cfg.ValidateURL,
		client:      client,
	}, nil
}

// NewGoogleTasksProvider builds a Google adapter whose validation endpoint
// exercises the Tasks API, so validation fails when the grant lacks the
// Tasks scope even if the token itself is live.
func NewGoogleTasksProvider(cfg Config, client *http.Client) (*GoogleProvider, error) {
	if cfg.ValidateURL == "" {
		cfg.ValidateURL = googleTasksListURL
	}
	return NewGoogleProvider(cfg, client)
}

func (p *GoogleProvider) Key() string {
	return p.key
}

func (p *GoogleProvider) AuthorizeURL(state string) string {
	// Offline access with forced consent is required for Google to issue a
	// refresh token on every authorization, not just the first.
	return p.oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthExchangeError{ProviderKey: p.key, Permanent: isPermanentExchangeError(err), Err: err}
	}
	return credentialFromOAuth2Token(p.key, tok, p.oauthCfg.Scopes), nil
}

func (p *GoogleProvider) Refresh(ctx context.Context, cred *Credential) (*RefreshResult, error) {
	if cred.RefreshToken == "" {
		return nil, &RefreshInvalidError{ProviderKey: p.key, Reason: "no refresh token on record"}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	src := p.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		if isPermanentRefreshError(err) {
			return nil, &RefreshInvalidError{ProviderKey: p.key, Reason: err.Error()}
		}
		return nil, &TransientProviderError{ProviderKey: p.key, Err: err}
	}

	fresh := credentialFromOAuth2Token(p.key, tok, cred.Scopes)
	fresh.Principal = cred.Principal
	rotated := fresh.RefreshToken != "" && fresh.RefreshToken != cred.RefreshToken
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}
	return &RefreshResult{Credential: fresh, Rotated: rotated}, nil
}

func (p *GoogleProvider) Validate(ctx context.Context, cred *Credential) error {
	return validateWithBearer(ctx, p.client, p.key, p.validateURL, cred, nil)
}

// credentialFromOAuth2Token maps an x/oauth2 token onto a credential.
func credentialFromOAuth2Token(providerKey string, tok *oauth2.Token, scopes []string) *Credential {
	cred := &Credential{
		ProviderKey:  providerKey,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scopes:       scopes,
		ExpiresAt:    tok.Expiry,
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}
	return cred
}
