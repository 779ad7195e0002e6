package config

import (
	"fmt"
	"net/http"

	"github.com/kenislabs/arka-gateway/internal/oauth"
)

// Provider keys as resolved by the token resolver. One key per upstream
// service; the provider name in the config file is the key minus the
// "-mcp" suffix.
const (
	GitHubProviderKey   = "github-mcp"
	GTasksProviderKey   = "gtasks-mcp"
	JiraProviderKey     = "jira-mcp"
	SupabaseProviderKey = "supabase-mcp"
)

// defaultScopes are requested when the config block leaves scopes unset.
var defaultScopes = map[string][]string{
	"github": {"repo", "read:user"},
	"gtasks": {"https://www.googleapis.com/auth/tasks"},
	"jira":   {"read:jira-work", "write:jira-work", "offline_access"},
}

type providerBuilder func(cfg oauth.Config, client *http.Client) (oauth.Provider, error)

var providerBuilders = map[string]struct {
	key   string
	build providerBuilder
}{
	"github": {GitHubProviderKey, func(cfg oauth.Config, client *http.Client) (oauth.Provider, error) {
		return oauth.NewGitHubProvider(cfg, client)
	}},
	"gtasks": {GTasksProviderKey, func(cfg oauth.Config, client *http.Client) (oauth.Provider, error) {
		return oauth.NewGoogleTasksProvider(cfg, client)
	}},
	"jira": {JiraProviderKey, func(cfg oauth.Config, client *http.Client) (oauth.Provider, error) {
		return oauth.NewJiraProvider(cfg, client)
	}},
	"supabase": {SupabaseProviderKey, func(cfg oauth.Config, client *http.Client) (oauth.Provider, error) {
		return oauth.NewSupabaseProvider(cfg, client)
	}},
}

// BuildProviders constructs the OAuth adapters for every configured
// provider block plus any contributed by the selected identity provider
// plugin. Unknown provider names are a configuration error.
func (c Config) BuildProviders(client *http.Client) ([]oauth.Provider, error) {
	var providers []oauth.Provider

	for name, pc := range c.Providers {
		if name == "azure" {
			// Consumed by the identity plugin below.
			continue
		}
		builder, ok := providerBuilders[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q in config", name)
		}

		scopes := pc.Scopes
		if len(scopes) == 0 {
			scopes = defaultScopes[name]
		}

		provider, err := builder.build(oauth.Config{
			Key:          builder.key,
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       scopes,
		}, client)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	plugin, err := c.IdentityPlugin(client)
	if err != nil {
		return nil, err
	}
	pluginProviders, err := plugin.Providers()
	if err != nil {
		return nil, err
	}
	return append(providers, pluginProviders...), nil
}

// IdentityPlugin returns the identity provider plugin selected by the
// enterprise config block, or the no-op plugin for community builds.
// Plugins are chosen by explicit configuration only.
func (c Config) IdentityPlugin(client *http.Client) (oauth.IdentityProviderPlugin, error) {
	switch c.Enterprise.IdentityProvider {
	case "", "none":
		return oauth.NoopPlugin{}, nil
	case "azure":
		pc := c.Providers["azure"]
		return &oauth.AzurePlugin{
			Config: oauth.Config{
				Key:          "azure-mcp",
				ClientID:     pc.ClientID,
				ClientSecret: pc.ClientSecret,
				RedirectURL:  pc.RedirectURL,
				Scopes:       pc.Scopes,
			},
			TenantID: c.Enterprise.TenantID,
			Client:   client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", c.Enterprise.IdentityProvider)
	}
}
