package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenislabs/arka-gateway/internal/oauth"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.True(t, cfg.Server.ReadOnly, "write tools must be opt-in")
	assert.Empty(t, cfg.Providers)
}

func TestReadOnlyCanBeDisabled(t *testing.T) {
	path := writeConfig(t, `
server:
  read_only: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Server.ReadOnly)

	t.Setenv("ARKA_READ_ONLY", "false")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Server.ReadOnly)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: http
  addr: ":8081"
  read_only: true
store:
  path: /var/lib/arka/credentials.db
providers:
  github:
    client_id: gh-id
    client_secret: gh-secret
    redirect_url: http://localhost:8080/callback
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.True(t, cfg.Server.ReadOnly)
	assert.Equal(t, "/var/lib/arka/credentials.db", cfg.Store.Path)
	assert.True(t, cfg.Metrics.Enabled)
	require.True(t, cfg.Enabled("github"))
	assert.Equal(t, "gh-id", cfg.Providers["github"].ClientID)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARKA_TRANSPORT", "http")
	t.Setenv("ARKA_READ_ONLY", "true")
	t.Setenv("ARKA_JIRA_CLIENT_ID", "jira-id")
	t.Setenv("ARKA_JIRA_CLIENT_SECRET", "jira-secret")
	t.Setenv("ARKA_JIRA_REDIRECT_URL", "http://localhost:8080/callback")
	t.Setenv("ARKA_JIRA_BASE_URL", "https://api.atlassian.com/ex/jira/cloud-1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.True(t, cfg.Server.ReadOnly)
	require.True(t, cfg.Enabled("jira"))
	assert.Equal(t, "jira-id", cfg.Providers["jira"].ClientID)
	assert.Equal(t, "https://api.atlassian.com/ex/jira/cloud-1", cfg.Providers["jira"].BaseURL)
}

func TestEnvOverridesFileValues(t *testing.T) {
	path := writeConfig(t, `
providers:
  github:
    client_id: from-file
    client_secret: gh-secret
    redirect_url: http://localhost:8080/callback
`)
	t.Setenv("ARKA_GITHUB_CLIENT_ID", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Providers["github"].ClientID)
	assert.Equal(t, "gh-secret", cfg.Providers["github"].ClientSecret)
}

func TestValidateRejectsPartialProvider(t *testing.T) {
	path := writeConfig(t, `
providers:
  github:
    client_id: gh-id
`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *oauth.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "github", cfgErr.ProviderKey)
	assert.Equal(t, "client_secret", cfgErr.Field)
}

func TestValidateJiraRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
providers:
  jira:
    client_id: jira-id
    client_secret: jira-secret
`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *oauth.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "jira", cfgErr.ProviderKey)
	assert.Equal(t, "base_url", cfgErr.Field)
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: websocket
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "websocket")
}

func TestValidateAzureRequiresTenant(t *testing.T) {
	path := writeConfig(t, `
enterprise:
  identity_provider: azure
`)

	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *oauth.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "tenant_id", cfgErr.Field)
}

func TestBuildProviders(t *testing.T) {
	cfg := Default()
	cfg.Providers = map[string]ProviderConfig{
		"github": {
			ClientID:     "gh-id",
			ClientSecret: "gh-secret",
			RedirectURL:  "http://localhost:8080/callback",
		},
		"supabase": {
			ClientID:     "sb-id",
			ClientSecret: "sb-secret",
			RedirectURL:  "http://localhost:8080/callback",
		},
	}

	providers, err := cfg.BuildProviders(nil)
	require.NoError(t, err)
	require.Len(t, providers, 2)

	keys := map[string]bool{}
	for _, p := range providers {
		keys[p.Key()] = true
	}
	assert.True(t, keys[GitHubProviderKey])
	assert.True(t, keys[SupabaseProviderKey])
}

func TestBuildProvidersWithAzurePlugin(t *testing.T) {
	cfg := Default()
	cfg.Enterprise = EnterpriseConfig{IdentityProvider: "azure", TenantID: "contoso"}
	cfg.Providers = map[string]ProviderConfig{
		"azure": {
			ClientID:     "az-id",
			ClientSecret: "az-secret",
			RedirectURL:  "http://localhost:8080/callback",
		},
	}

	providers, err := cfg.BuildProviders(nil)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "azure-mcp", providers[0].Key())
}

func TestBuildProvidersUnknownName(t *testing.T) {
	cfg := Default()
	cfg.Providers = map[string]ProviderConfig{
		"gitlab": {ClientID: "id", ClientSecret: "secret"},
	}

	_, err := cfg.BuildProviders(nil)
	assert.ErrorContains(t, err, "gitlab")
}
