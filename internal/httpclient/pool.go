package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kenislabs/arka-gateway/internal/logging"
)

// Connection limits for each per-service client. One shared client per
// service keeps connection reuse high without starving other services.
const (
	maxIdleConnsPerService = 20
	maxConnsPerService     = 40
	requestTimeout         = 30 * time.Second
	idleConnTimeout        = 90 * time.Second
)

// TokenSource supplies bearer tokens for outbound requests. Implemented
// by worker.Resolver.
type TokenSource interface {
	ResolveToken(ctx context.Context, providerKey string) (string, error)
	ForceRefresh(ctx context.Context, providerKey string) (string, error)
}

// UpstreamMetrics records upstream call outcomes and latency. Implemented
// by internal/instrumentation; nil disables recording.
type UpstreamMetrics interface {
	RecordUpstreamCall(ctx context.Context, service string, status int)
	RecordUpstreamDuration(ctx context.Context, service string, duration time.Duration)
}

// Pool hands out one shared *http.Client per upstream service and runs
// authenticated requests through it. Clients are created on first use and
// reused for the process lifetime.
type Pool struct {
	tokens  TokenSource
	logger  *slog.Logger
	metrics UpstreamMetrics

	mu      sync.Mutex
	clients map[string]*http.Client
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the pool logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUpstreamMetrics sets the metrics sink.
func WithUpstreamMetrics(m UpstreamMetrics) PoolOption {
	return func(p *Pool) {
		p.metrics = m
	}
}

// NewPool creates a pool drawing bearer tokens from the given source.
func NewPool(tokens TokenSource, opts ...PoolOption) *Pool {
	p := &Pool{
		tokens:  tokens,
		logger:  slog.Default(),
		clients: make(map[string]*http.Client),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the shared client for the service, creating it on first
// use. Concurrent first calls for the same service get the same client.
func (p *Pool) Client(service string) *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[service]; ok {
		return client
	}
	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: maxIdleConnsPerService,
			MaxConnsPerHost:     maxConnsPerService,
			IdleConnTimeout:     idleConnTimeout,
		},
	}
	p.clients[service] = client
	p.logger.Debug("upstream client created", logging.Service(service))
	return client
}

// Do sends the request with a bearer token for providerKey injected. On a
// 401 the credential is force-refreshed once and the request retried with
// the new token; a second 401 is returned to the caller. Failures come
// back as *RequestError.
//
// Retried requests need a rewindable body; requests built by
// http.NewRequest from a byte or string reader satisfy this via GetBody.
func (p *Pool) Do(ctx context.Context, service, providerKey string, req *http.Request) (*http.Response, error) {
	token, err := p.tokens.ResolveToken(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	resp, reqErr := p.send(ctx, service, req, token)
	if reqErr != nil {
		return nil, reqErr
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// The provider rejected a token the registry believed valid, most
	// likely revoked out of band. Refresh once and retry.
	_ = resp.Body.Close()
	p.logger.Info("upstream returned 401, refreshing token",
		logging.Service(service),
		logging.Provider(providerKey))

	token, err = p.tokens.ForceRefresh(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, &RequestError{Service: service, Kind: KindUnexpected, Err: err}
	}
	resp, reqErr = p.send(ctx, service, retry, token)
	if reqErr != nil {
		return nil, reqErr
	}
	return resp, nil
}

func (p *Pool) send(ctx context.Context, service string, req *http.Request, token string) (*http.Response, *RequestError) {
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := p.Client(service).Do(req)
	if err != nil {
		reqErr := classifyTransportError(service, err)
		p.recordCall(ctx, service, 0, time.Since(start))
		p.logger.Warn("upstream request failed",
			logging.Service(service),
			slog.String("kind", string(reqErr.Kind)),
			logging.Err(err))
		return nil, reqErr
	}
	p.recordCall(ctx, service, resp.StatusCode, time.Since(start))
	return resp, nil
}

// cloneRequest produces a retryable copy of req with a rewound body.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body for retry: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// Shutdown closes idle connections on every client and drops the client
// map. Safe to call more than once, including with no clients created; a
// Client call after Shutdown recreates the per-service client.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for service, client := range p.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
		p.logger.Debug("upstream client closed", logging.Service(service))
	}
	p.clients = make(map[string]*http.Client)
}

func (p *Pool) recordCall(ctx context.Context, service string, status int, duration time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordUpstreamCall(ctx, service, status)
		p.metrics.RecordUpstreamDuration(ctx, service, duration)
	}
}
