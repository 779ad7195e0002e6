// Package config loads gateway configuration from a YAML file with
// ARKA_-prefixed environment overrides. Provider blocks are validated
// at load time so a misconfigured provider fails startup instead of
// surfacing on the first token resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kenislabs/arka-gateway/internal/oauth"
)

const configFileName = "config.yaml"

// ProviderConfig is one OAuth provider block in the config file. Only
// client credentials are required; endpoint URLs default per adapter.
type ProviderConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`

	// BaseURL is the upstream API base for providers whose API is
	// tenant-scoped, e.g. Jira's
	// https://api.atlassian.com/ex/jira/<cloud-id>.
	BaseURL string `yaml:"base_url"`
}

// EnterpriseConfig selects an identity provider plugin. The community
// build leaves this empty.
type EnterpriseConfig struct {
	IdentityProvider string `yaml:"identity_provider"`
	TenantID         string `yaml:"tenant_id"`
}

// ServerConfig holds transport and listener settings.
type ServerConfig struct {
	Transport   string `yaml:"transport"`
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	ReadOnly    bool   `yaml:"read_only"`
}

// StoreConfig holds credential store settings. An empty path selects
// the in-memory store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Config is the root gateway configuration.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Store      StoreConfig               `yaml:"store"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Enterprise EnterpriseConfig          `yaml:"enterprise"`
	Metrics    MetricsConfig             `yaml:"metrics"`
}

// MetricsConfig controls the instrumentation provider.
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	DetailedLabels bool `yaml:"detailed_labels"`
}

// Default returns the configuration used when no file is present. Write
// tools stay disabled until the operator opts in via config, environment
// or the serve command's --yolo flag.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Transport:   "stdio",
			Addr:        ":8080",
			MetricsAddr: ":9090",
			ReadOnly:    true,
		},
		Providers: map[string]ProviderConfig{},
	}
}

// DefaultPath returns the default config file location under the user's
// config directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, ".config", "arka-gateway", configFileName)
}

// Load reads the config file at path, applies environment overrides and
// validates the result. A missing file is not an error; defaults plus
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults + env only
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers ARKA_ environment variables over the file values.
// Provider credentials follow ARKA_<PROVIDER>_CLIENT_ID with the
// provider name upcased, e.g. ARKA_GITHUB_CLIENT_ID.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ARKA_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("ARKA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ARKA_METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("ARKA_READ_ONLY"); v != "" {
		cfg.Server.ReadOnly = boolEnv(v)
	}
	if v := os.Getenv("ARKA_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ARKA_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = boolEnv(v)
	}
	if v := os.Getenv("ARKA_METRICS_DETAILED_LABELS"); v != "" {
		cfg.Metrics.DetailedLabels = boolEnv(v)
	}
	if v := os.Getenv("ARKA_IDENTITY_PROVIDER"); v != "" {
		cfg.Enterprise.IdentityProvider = v
	}
	if v := os.Getenv("ARKA_TENANT_ID"); v != "" {
		cfg.Enterprise.TenantID = v
	}

	for _, name := range []string{"github", "gtasks", "jira", "supabase"} {
		applyProviderEnv(cfg, name)
	}
}

func applyProviderEnv(cfg *Config, name string) {
	prefix := "ARKA_" + envName(name) + "_"
	id := os.Getenv(prefix + "CLIENT_ID")
	secret := os.Getenv(prefix + "CLIENT_SECRET")
	redirect := os.Getenv(prefix + "REDIRECT_URL")
	base := os.Getenv(prefix + "BASE_URL")
	if id == "" && secret == "" && redirect == "" && base == "" {
		return
	}

	pc := cfg.Providers[name]
	if id != "" {
		pc.ClientID = id
	}
	if secret != "" {
		pc.ClientSecret = secret
	}
	if redirect != "" {
		pc.RedirectURL = redirect
	}
	if base != "" {
		pc.BaseURL = base
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	cfg.Providers[name] = pc
}

func envName(provider string) string {
	upper := make([]byte, len(provider))
	for i := 0; i < len(provider); i++ {
		c := provider[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}
	return string(upper)
}

func boolEnv(v string) bool {
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return parsed
}

// Validate checks the configuration for fatal problems. A provider
// block with a client ID but no secret (or the reverse) is rejected; a
// selected enterprise plugin must be known.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}

	for name, pc := range c.Providers {
		if pc.ClientID == "" {
			return &oauth.ConfigurationError{ProviderKey: name, Field: "client_id", Reason: "required"}
		}
		if pc.ClientSecret == "" {
			return &oauth.ConfigurationError{ProviderKey: name, Field: "client_secret", Reason: "required"}
		}
		// Jira's API base is tenant-scoped; there is no usable default.
		if name == "jira" && pc.BaseURL == "" {
			return &oauth.ConfigurationError{ProviderKey: name, Field: "base_url", Reason: "required"}
		}
	}

	switch c.Enterprise.IdentityProvider {
	case "", "none":
	case "azure":
		if c.Enterprise.TenantID == "" {
			return &oauth.ConfigurationError{ProviderKey: "azure", Field: "tenant_id", Reason: "required"}
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Enterprise.IdentityProvider)
	}
	return nil
}

// Enabled reports whether a provider block is configured.
func (c Config) Enabled(name string) bool {
	_, ok := c.Providers[name]
	return ok
}
