package github

import (
	"bytes"
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
	// Service is the client-pool service name for GitHub.
	Service = "github"
	// ProviderKey is the OAuth provider key tokens are resolved under.
	ProviderKey = "github-mcp"

	defaultBaseURL = "https://api.github.com"
)

// Client is a thin GitHub REST client drawing authenticated transport
// from the shared client pool.
type Client struct {
	pool    *httpclient.Pool
	baseURL string
}

// NewClient creates a GitHub client over the pool.
func NewClient(pool *httpclient.Pool) *Client {
	return &Client{pool: pool, baseURL: defaultBaseURL}
}

// NewClientWithBaseURL creates a client against a non-default API base.
// Used for GitHub Enterprise instances and tests.
func NewClientWithBaseURL(pool *httpclient.Pool, baseURL string) *Client {
	return &Client{pool: pool, baseURL: baseURL}
}

// GetUser returns the authenticated user.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRepos lists repositories for the authenticated user, most recently
// updated first.
func (c *Client) ListRepos(ctx context.Context, perPage int) ([]Repository, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 30
	}
	path := "/user/repos?sort=updated&per_page=" + strconv.Itoa(perPage)
	var repos []Repository
	if err := c.do(ctx, http.MethodGet, path, nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepo returns a single repository by owner and name.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repository, error) {
	var result Repository
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListIssues lists issues in a repository filtered by state
// ("open", "closed" or "all").
func (c *Client) ListIssues(ctx context.Context, owner, repo, state string) ([]Issue, error) {
	if state == "" {
		state = "open"
	}
	path := fmt.Sprintf("/repos/%s/%s/issues?state=%s",
		url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(state))
	var issues []Issue
	if err := c.do(ctx, http.MethodGet, path, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, input IssueInput) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, http.MethodPost, path, input, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateIssue patches an existing issue. Zero-valued input fields are
// left unchanged.
func (c *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, input IssueInput) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", url.PathEscape(owner), url.PathEscape(repo), number)
	if err := c.do(ctx, http.MethodPatch, path, input, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetPullRequest returns a pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), number)
	if err := c.do(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// MergePullRequest merges a pull request with the given commit message.
func (c *Client) MergePullRequest(ctx context.Context, owner, repo string, number int, message string) (*MergeResult, error) {
	payload := map[string]string{}
	if message != "" {
		payload["commit_message"] = message
	}
	var result MergeResult
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", url.PathEscape(owner), url.PathEscape(repo), number)
	if err := c.do(ctx, http.MethodPut, path, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do runs one API request through the pool and decodes the response into
// out (skipped when out is nil).
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
	req.Header.Set("Accept", "application/vnd.github+json")
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
