package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kenislabs/arka-gateway/internal/config"
	"github.com/kenislabs/arka-gateway/internal/github"
	"github.com/kenislabs/arka-gateway/internal/httpclient"
	"github.com/kenislabs/arka-gateway/internal/instrumentation"
	"github.com/kenislabs/arka-gateway/internal/jira"
	"github.com/kenislabs/arka-gateway/internal/oauth"
	"github.com/kenislabs/arka-gateway/internal/store"
	"github.com/kenislabs/arka-gateway/internal/supabase"
	"github.com/kenislabs/arka-gateway/internal/worker"
)

// ServerContext wires the gateway's long-lived pieces together: the
// credential store, the provider registry, the token resolver, the
// outbound client pool and the service clients built on top of them.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      config.Config
	logger   *slog.Logger
	store    oauth.CredentialStore
	registry *oauth.Registry
	resolver *worker.Resolver
	pool     *httpclient.Pool
	insProv  *instrumentation.Provider

	githubClient   *github.Client
	jiraClient     *jira.Client
	supabaseClient *supabase.Client

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext builds the gateway wiring from config. Everything is
// initialized up front so misconfiguration fails startup, not the first
// tool call.
func NewServerContext(ctx context.Context, cfg config.Config, version string, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)

	insCfg := instrumentation.DefaultConfig()
	insCfg.ServiceVersion = version
	insCfg.Enabled = cfg.Metrics.Enabled
	insCfg.DetailedLabels = cfg.Metrics.DetailedLabels
	insProv, err := instrumentation.NewProvider(shutdownCtx, insCfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
	}

	var credStore oauth.CredentialStore
	if cfg.Store.Path != "" {
		credStore, err = store.NewSQLiteStore(cfg.Store.Path, logger)
		if err != nil {
			cancel()
			return nil, err
		}
	} else {
		credStore = store.NewMemoryStore()
	}

	registry := oauth.NewRegistry(credStore,
		oauth.WithLogger(logger),
		oauth.WithMetrics(insProv.Metrics()),
	)

	providers, err := cfg.BuildProviders(nil)
	if err != nil {
		cancel()
		return nil, err
	}
	for _, p := range providers {
		registry.Register(p)
	}

	resolver := worker.NewResolver(registry, logger)
	pool := httpclient.NewPool(resolver,
		httpclient.WithPoolLogger(logger),
		httpclient.WithUpstreamMetrics(insProv.Metrics()),
	)

	return &ServerContext{
		ctx:            shutdownCtx,
		cancel:         cancel,
		cfg:            cfg,
		logger:         logger,
		store:          credStore,
		registry:       registry,
		resolver:       resolver,
		pool:           pool,
		insProv:        insProv,
		githubClient:   github.NewClient(pool),
		jiraClient:     jira.NewClient(pool, cfg.Providers["jira"].BaseURL),
		supabaseClient: supabase.NewClient(pool),
	}, nil
}

// Context returns the server's lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the loaded gateway configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Registry returns the OAuth provider registry.
func (sc *ServerContext) Registry() *oauth.Registry {
	return sc.registry
}

// Resolver returns the token resolver.
func (sc *ServerContext) Resolver() *worker.Resolver {
	return sc.resolver
}

// Pool returns the outbound client pool.
func (sc *ServerContext) Pool() *httpclient.Pool {
	return sc.pool
}

// Metrics returns the metrics recorder. Always non-nil; a disabled
// provider hands out a no-op recorder.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.insProv.Metrics()
}

// Instrumentation returns the instrumentation provider.
func (sc *ServerContext) Instrumentation() *instrumentation.Provider {
	return sc.insProv
}

// GitHubClient returns the shared GitHub client.
func (sc *ServerContext) GitHubClient() *github.Client {
	return sc.githubClient
}

// JiraClient returns the shared Jira client.
func (sc *ServerContext) JiraClient() *jira.Client {
	return sc.jiraClient
}

// SupabaseClient returns the shared Supabase management client.
func (sc *ServerContext) SupabaseClient() *supabase.Client {
	return sc.supabaseClient
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown releases the pool, the store and the instrumentation
// provider. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	sc.cancel()
	sc.pool.Shutdown()

	var errs []error
	if closer, ok := sc.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close credential store: %w", err))
		}
	}
	if err := sc.insProv.Shutdown(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
