package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kenislabs/arka-gateway/internal/httpclient"
)

const (
	// Service is the client-pool service name for Supabase.
	Service = "supabase"
	// ProviderKey is the OAuth provider key tokens are resolved under.
	ProviderKey = "supabase-mcp"

	defaultBaseURL = "https://api.supabase.com"
)

// Client is a thin client for the Supabase management API.
type Client struct {
	pool    *httpclient.Pool
	baseURL string
}

// NewClient creates a Supabase management client over the pool.
func NewClient(pool *httpclient.Pool) *Client {
	return &Client{pool: pool, baseURL: defaultBaseURL}
}

// NewClientWithBaseURL creates a client against a non-default API base.
// Used in tests.
func NewClientWithBaseURL(pool *httpclient.Pool, baseURL string) *Client {
	return &Client{pool: pool, baseURL: baseURL}
}

// ListProjects lists all projects visible to the authorized user.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/v1/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListOrganizations lists the user's organizations.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := c.do(ctx, http.MethodGet, "/v1/organizations", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// RunQuery executes a SQL query against the project database and returns
// the raw result rows.
func (c *Client) RunQuery(ctx context.Context, projectRef, query string) (json.RawMessage, error) {
	payload := map[string]string{"query": query}
	var result json.RawMessage
	path := fmt.Sprintf("/v1/projects/%s/database/query", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodPost, path, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAPIKeys lists the project's API keys.
func (c *Client) ListAPIKeys(ctx context.Context, projectRef string) ([]APIKey, error) {
	var keys []APIKey
	path := fmt.Sprintf("/v1/projects/%s/api-keys", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodGet, path, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateAPIKey creates a new project API key.
func (c *Client) CreateAPIKey(ctx context.Context, projectRef string, input APIKeyInput) (*APIKey, error) {
	var key APIKey
	path := fmt.Sprintf("/v1/projects/%s/api-keys", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodPost, path, input, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// DeleteAPIKey removes a project API key by ID.
func (c *Client) DeleteAPIKey(ctx context.Context, projectRef, keyID string) error {
	path := fmt.Sprintf("/v1/projects/%s/api-keys/%s", url.PathEscape(projectRef), url.PathEscape(keyID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListFunctions lists the project's edge functions.
func (c *Client) ListFunctions(ctx context.Context, projectRef string) ([]EdgeFunction, error) {
	var fns []EdgeFunction
	path := fmt.Sprintf("/v1/projects/%s/functions", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodGet, path, nil, &fns); err != nil {
		return nil, err
	}
	return fns, nil
}

// GetFunction retrieves one edge function by slug.
func (c *Client) GetFunction(ctx context.Context, projectRef, slug string) (*EdgeFunction, error) {
	var fn EdgeFunction
	path := fmt.Sprintf("/v1/projects/%s/functions/%s", url.PathEscape(projectRef), url.PathEscape(slug))
	if err := c.do(ctx, http.MethodGet, path, nil, &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}

// DeployFunction creates or updates an edge function from source. The
// management API upserts by slug, bumping the version on redeploy.
func (c *Client) DeployFunction(ctx context.Context, projectRef string, input FunctionInput) (*EdgeFunction, error) {
	var fn EdgeFunction
	path := fmt.Sprintf("/v1/projects/%s/functions?slug=%s", url.PathEscape(projectRef), url.QueryEscape(input.Slug))
	if err := c.do(ctx, http.MethodPost, path, input, &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}

// DeleteFunction removes an edge function by slug.
func (c *Client) DeleteFunction(ctx context.Context, projectRef, slug string) error {
	path := fmt.Sprintf("/v1/projects/%s/functions/%s", url.PathEscape(projectRef), url.PathEscape(slug))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListBranches lists the project's database preview branches.
func (c *Client) ListBranches(ctx context.Context, projectRef string) ([]Branch, error) {
	var branches []Branch
	path := fmt.Sprintf("/v1/projects/%s/branches", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodGet, path, nil, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// CreateBranch creates a database preview branch.
func (c *Client) CreateBranch(ctx context.Context, projectRef string, input BranchInput) (*Branch, error) {
	var branch Branch
	path := fmt.Sprintf("/v1/projects/%s/branches", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodPost, path, input, &branch); err != nil {
		return nil, err
	}
	return &branch, nil
}

// DeleteBranch removes a database preview branch by ID.
func (c *Client) DeleteBranch(ctx context.Context, branchID string) error {
	path := "/v1/branches/" + url.PathEscape(branchID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ResetBranch resets a database preview branch to its migration state.
func (c *Client) ResetBranch(ctx context.Context, branchID string) error {
	path := fmt.Sprintf("/v1/branches/%s/reset", url.PathEscape(branchID))
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

// ListSecrets lists the project's secrets. Values are not returned.
func (c *Client) ListSecrets(ctx context.Context, projectRef string) ([]Secret, error) {
	var secrets []Secret
	path := fmt.Sprintf("/v1/projects/%s/secrets", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodGet, path, nil, &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

// ListBackups lists the project's database backups.
func (c *Client) ListBackups(ctx context.Context, projectRef string) (*BackupsResponse, error) {
	var backups BackupsResponse
	path := fmt.Sprintf("/v1/projects/%s/database/backups", url.PathEscape(projectRef))
	if err := c.do(ctx, http.MethodGet, path, nil, &backups); err != nil {
		return nil, err
	}
	return &backups, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.pool.Do(ctx, Service, ProviderKey, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &httpclient.RequestError{Service: Service, Kind: httpclient.KindUpstreamHTTP, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
