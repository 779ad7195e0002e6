package oauth

// IdentityProviderPlugin is the seam for enterprise identity providers.
// Community builds carry the no-op plugin; enterprise builds select a
// concrete plugin by name through configuration. Selection is always
// explicit config, never environment probing.
type IdentityProviderPlugin interface {
	// Name identifies the plugin in configuration, e.g. "azure".
	Name() string

	// Providers returns the additional provider adapters this plugin
	// contributes. Called once at startup before registration.
	Providers() ([]Provider, error)
}

// NoopPlugin is the community default: no extra identity providers.
type NoopPlugin struct{}

func (NoopPlugin) Name() string { return "none" }

func (NoopPlugin) Providers() ([]Provider, error) { return nil, nil }
