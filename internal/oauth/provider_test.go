package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(key string) Config {
	return Config{
		Key:          key,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://gateway.example.com/callback",
		Scopes:       []string{"repo", "read:user"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing client_id", func(c *Config) { c.ClientID = "" }, "client_id"},
		{"missing client_secret", func(c *Config) { c.ClientSecret = "" }, "client_secret"},
		{"missing auth_url", func(c *Config) { c.AuthURL = "" }, "auth_url"},
		{"missing token_url", func(c *Config) { c.TokenURL = "" }, "token_url"},
		{"missing redirect_url", func(c *Config) { c.RedirectURL = "" }, "redirect_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("github-mcp")
			cfg.AuthURL = "https://auth.example.com/authorize"
			cfg.TokenURL = "https://auth.example.com/token"
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var confErr *ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
}

func TestBuildAuthorizeURL(t *testing.T) {
	cfg := testConfig("github-mcp")
	cfg.AuthURL = "https://github.example.com/login/oauth/authorize"
	cfg.ExtraAuthParams = map[string]string{"audience": "api.example.com"}

	raw := buildAuthorizeURL(cfg, "state-123")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://gateway.example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "repo read:user", q.Get("scope"))
	assert.Equal(t, "api.example.com", q.Get("audience"))
}

// newTokenServer returns a server answering token requests with the given
// handler and records the last form it received.
func newTokenServer(t *testing.T, handler func(form url.Values, w http.ResponseWriter)) (*httptest.Server, *url.Values) {
	t.Helper()
	var lastForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		lastForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		handler(r.PostForm, w)
	}))
	t.Cleanup(srv.Close)
	return srv, &lastForm
}

func TestGitHubExchange(t *testing.T) {
	srv, lastForm := newTokenServer(t, func(form url.Values, w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "gho_abc",
			"token_type":    "bearer",
			"refresh_token": "ghr_def",
			"expires_in":    28800,
			"scope":         "repo read:user",
		})
	})

	cfg := testConfig("github-mcp")
	cfg.TokenURL = srv.URL
	p, err := NewGitHubProvider(cfg, srv.Client())
	require.NoError(t, err)

	cred, err := p.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", cred.AccessToken)
	assert.Equal(t, "ghr_def", cred.RefreshToken)
	assert.Equal(t, []string{"repo", "read:user"}, cred.Scopes)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), cred.ExpiresAt, time.Minute)

	assert.Equal(t, "authorization_code", (*lastForm).Get("grant_type"))
	assert.Equal(t, "the-code", (*lastForm).Get("code"))
}

func TestGitHubExchangeBadCode(t *testing.T) {
	srv, _ := newTokenServer(t, func(form url.Values, w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		})
	})

	cfg := testConfig("github-mcp")
	cfg.TokenURL = srv.URL
	p, err := NewGitHubProvider(cfg, srv.Client())
	require.NoError(t, err)

	_, err = p.Exchange(context.Background(), "bogus")
	require.Error(t, err)
	var exchangeErr *AuthExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.True(t, exchangeErr.Permanent)
}

func TestGitHubRefreshRotation(t *testing.T) {
	srv, lastForm := newTokenServer(t, func(form url.Values, w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "gho_new",
			"token_type":    "bearer",
			"refresh_token": "ghr_new",
			"expires_in":    28800,
		})
	})

	cfg := testConfig("github-mcp")
	cfg.TokenURL = srv.URL
	p, err := NewGitHubProvider(cfg, srv.Client())
	require.NoError(t, err)

	old := &Credential{ProviderKey: "github-mcp", Principal: "alice", AccessToken: "gho_old", RefreshToken: "ghr_old"}
	res, err := p.Refresh(context.Background(), old)
	require.NoError(t, err)
	assert.True(t, res.Rotated)
	assert.Equal(t, "gho_new", res.Credential.AccessToken)
	assert.Equal(t, "ghr_new", res.Credential.RefreshToken)
	assert.Equal(t, "alice", res.Credential.Principal)

	assert.Equal(t, "refresh_token", (*lastForm).Get("grant_type"))
	assert.Equal(t, "ghr_old", (*lastForm).Get("refresh_token"))
}

func TestGitHubRefreshWithoutRefreshToken(t *testing.T) {
	cfg := testConfig("github-mcp")
	cfg.TokenURL = "https://unused.example.com/token"
	p, err := NewGitHubProvider(cfg, nil)
	require.NoError(t, err)

	_, err = p.Refresh(context.Background(), &Credential{ProviderKey: "github-mcp", AccessToken: "gho_old"})
	var invalid *RefreshInvalidError
	require.ErrorAs(t, err, &invalid)
}

func TestRefreshInvalidGrantClassifiedPermanent(t *testing.T) {
	srv, _ := newTokenServer(t, func(form url.Values, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
	})

	cfg := testConfig("supabase-mcp")
	cfg.TokenURL = srv.URL
	p, err := NewSupabaseProvider(cfg, srv.Client())
	require.NoError(t, err)

	_, err = p.Refresh(context.Background(), &Credential{ProviderKey: "supabase-mcp", RefreshToken: "sbr_old"})
	var invalid *RefreshInvalidError
	require.ErrorAs(t, err, &invalid)
}

func TestRefreshServerErrorClassifiedTransient(t *testing.T) {
	srv, _ := newTokenServer(t, func(form url.Values, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
	})

	cfg := testConfig("supabase-mcp")
	cfg.TokenURL = srv.URL
	p, err := NewSupabaseProvider(cfg, srv.Client())
	require.NoError(t, err)

	_, err = p.Refresh(context.Background(), &Credential{ProviderKey: "supabase-mcp", RefreshToken: "sbr_old"})
	var transient *TransientProviderError
	require.ErrorAs(t, err, &transient)
}

func TestSupabaseRefreshWithoutRotation(t *testing.T) {
	srv, _ := newTokenServer(t, func(form url.Values, w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "sb_new",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	cfg := testConfig("supabase-mcp")
	cfg.TokenURL = srv.URL
	p, err := NewSupabaseProvider(cfg, srv.Client())
	require.NoError(t, err)

	res, err := p.Refresh(context.Background(), &Credential{ProviderKey: "supabase-mcp", RefreshToken: "sbr_1"})
	require.NoError(t, err)
	assert.False(t, res.Rotated)
	assert.Equal(t, "sbr_1", res.Credential.RefreshToken,
		"previous refresh token is kept when the provider does not rotate")
}

func TestJiraAuthorizeURLCarriesAudience(t *testing.T) {
	cfg := testConfig("jira-mcp")
	p, err := NewJiraProvider(cfg, nil)
	require.NoError(t, err)

	raw := p.AuthorizeURL("state-1")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "api.atlassian.com", q.Get("audience"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-1", q.Get("state"))
}

func TestValidateClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   bool
		permanent bool
	}{
		{"valid", http.StatusOK, false, false},
		{"unauthorized", http.StatusUnauthorized, true, true},
		{"forbidden", http.StatusForbidden, true, true},
		{"server error", http.StatusInternalServerError, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cfg := testConfig("github-mcp")
			cfg.TokenURL = "https://unused.example.com/token"
			cfg.ValidateURL = srv.URL
			p, err := NewGitHubProvider(cfg, srv.Client())
			require.NoError(t, err)

			err = p.Validate(context.Background(), &Credential{AccessToken: "live-token"})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var invalid *RefreshInvalidError
			if tt.permanent {
				assert.ErrorAs(t, err, &invalid)
			} else {
				var transient *TransientProviderError
				assert.ErrorAs(t, err, &transient)
			}
		})
	}
}

func TestGoogleTasksProviderUsesTasksValidation(t *testing.T) {
	cfg := testConfig("gtasks-mcp")
	p, err := NewGoogleTasksProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, googleTasksListURL, p.validateURL)

	base, err := NewGoogleProvider(testConfig("google-mcp"), nil)
	require.NoError(t, err)
	assert.Equal(t, googleUserinfoURL, base.validateURL)
}

func TestGoogleAuthorizeURLRequestsOfflineAccess(t *testing.T) {
	p, err := NewGoogleProvider(testConfig("gtasks-mcp"), nil)
	require.NoError(t, err)

	raw := p.AuthorizeURL("state-1")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
}

func TestAzurePluginContributesProvider(t *testing.T) {
	plugin := &AzurePlugin{
		Config:   testConfig("azure-mcp"),
		TenantID: "tenant-1",
	}
	providers, err := plugin.Providers()
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "azure-mcp", providers[0].Key())

	raw := providers[0].AuthorizeURL("s")
	assert.Contains(t, raw, "login.microsoftonline.com/tenant-1")
}

func TestAzurePluginRequiresTenant(t *testing.T) {
	plugin := &AzurePlugin{Config: testConfig("azure-mcp")}
	_, err := plugin.Providers()
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "tenant_id", confErr.Field)
}

func TestNoopPlugin(t *testing.T) {
	var plugin NoopPlugin
	providers, err := plugin.Providers()
	require.NoError(t, err)
	assert.Empty(t, providers)
	assert.Equal(t, "none", plugin.Name())
}
