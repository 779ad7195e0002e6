package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kenislabs/arka-gateway/internal/httpclient"
)

const (
	// Service is the client-pool service name for Jira.
	Service = "jira"
	// ProviderKey is the OAuth provider key tokens are resolved under.
	ProviderKey = "jira-mcp"
)

// Client is a thin Jira Cloud REST client. The base URL points at the
// tenant's API gateway, e.g.
// https://api.atlassian.com/ex/jira/<cloud-id>.
type Client struct {
	pool    *httpclient.Pool
	baseURL string
}

// NewClient creates a Jira client for the given API base URL.
func NewClient(pool *httpclient.Pool, baseURL string) *Client {
	return &Client{pool: pool, baseURL: baseURL}
}

// GetIssue returns a single issue by key, e.g. "PROJ-123".
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var issue Issue
	path := "/rest/api/3/issue/" + url.PathEscape(key)
	if err := c.do(ctx, path, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// SearchIssues runs a JQL query and returns up to maxResults issues.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (*SearchResult, error) {
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 25
	}
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var result SearchResult
	if err := c.do(ctx, "/rest/api/3/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.pool.Do(ctx, Service, ProviderKey, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &httpclient.RequestError{Service: Service, Kind: httpclient.KindUpstreamHTTP, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
