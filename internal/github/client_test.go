package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenislabs/arka-gateway/internal/httpclient"
)

type staticTokens struct{}

func (staticTokens) ResolveToken(context.Context, string) (string, error) {
	return "gho_test", nil
}

func (staticTokens) ForceRefresh(context.Context, string) (string, error) {
	return "gho_test", nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	pool := httpclient.NewPool(staticTokens{})
	t.Cleanup(pool.Shutdown)
	return NewClientWithBaseURL(pool, srv.URL)
}

func TestGetUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(User{Login: "octocat", ID: 1})
	})

	user, err := client.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
}

func TestListRepos(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "30", r.URL.Query().Get("per_page"))
		_ = json.NewEncoder(w).Encode([]Repository{
			{Name: "arka-gateway", FullName: "kenislabs/arka-gateway"},
		})
	})

	repos, err := client.ListRepos(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "kenislabs/arka-gateway", repos[0].FullName)
}

func TestCreateIssue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/kenislabs/arka-gateway/issues", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var input IssueInput
		require.NoError(t, json.Unmarshal(body, &input))
		assert.Equal(t, "found a bug", input.Title)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Issue{Number: 42, Title: input.Title, State: "open"})
	})

	issue, err := client.CreateIssue(context.Background(), "kenislabs", "arka-gateway", IssueInput{Title: "found a bug"})
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
}

func TestUpdateIssueClosesIssue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/repos/kenislabs/arka-gateway/issues/42", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Issue{Number: 42, State: "closed"})
	})

	issue, err := client.UpdateIssue(context.Background(), "kenislabs", "arka-gateway", 42, IssueInput{State: "closed"})
	require.NoError(t, err)
	assert.Equal(t, "closed", issue.State)
}

func TestMergePullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/repos/kenislabs/arka-gateway/pulls/7/merge", r.URL.Path)
		_ = json.NewEncoder(w).Encode(MergeResult{SHA: "abc123", Merged: true})
	})

	result, err := client.MergePullRequest(context.Background(), "kenislabs", "arka-gateway", 7, "ship it")
	require.NoError(t, err)
	assert.True(t, result.Merged)
}

func TestUpstreamErrorClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetRepo(context.Background(), "kenislabs", "missing")
	require.Error(t, err)

	var reqErr *httpclient.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, httpclient.KindUpstreamHTTP, reqErr.Kind)
	assert.Equal(t, http.StatusNotFound, reqErr.Status)
	assert.Contains(t, reqErr.UserMessage(), "not found")
}
