package supabase

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
	return "sbp_test", nil
}

func (staticTokens) ForceRefresh(context.Context, string) (string, error) {
	return "sbp_test", nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	pool := httpclient.NewPool(staticTokens{})
	t.Cleanup(pool.Shutdown)
	return NewClientWithBaseURL(pool, srv.URL)
}

func TestListProjects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects", r.URL.Path)
		assert.Equal(t, "Bearer sbp_test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Project{
			{ID: "abc123", Name: "production", Region: "eu-central-1", Status: "ACTIVE_HEALTHY"},
		})
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "production", projects[0].Name)
}

func TestRunQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/abc123/database/query", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "select count(*) from users", payload["query"])

		_, _ = w.Write([]byte(`[{"count": 42}]`))
	})

	result, err := client.RunQuery(context.Background(), "abc123", "select count(*) from users")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"count": 42}]`, string(result))
}

func TestAPIKeyLifecycle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/projects/abc123/api-keys":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(APIKey{ID: "key-1", Type: "publishable"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/projects/abc123/api-keys":
			_ = json.NewEncoder(w).Encode([]APIKey{{ID: "key-1"}})
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/projects/abc123/api-keys/key-1":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	created, err := client.CreateAPIKey(ctx, "abc123", APIKeyInput{Type: "publishable"})
	require.NoError(t, err)
	assert.Equal(t, "key-1", created.ID)

	keys, err := client.ListAPIKeys(ctx, "abc123")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, client.DeleteAPIKey(ctx, "abc123", "key-1"))
}

func TestBranchOperations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/projects/abc123/branches":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Branch{ID: "br-1", Name: "staging"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/branches/br-1/reset":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/branches/br-1":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	branch, err := client.CreateBranch(ctx, "abc123", BranchInput{BranchName: "staging"})
	require.NoError(t, err)
	assert.Equal(t, "br-1", branch.ID)

	require.NoError(t, client.ResetBranch(ctx, "br-1"))
	require.NoError(t, client.DeleteBranch(ctx, "br-1"))
}

func TestListSecretsOmitsValues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/abc123/secrets", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Secret{{Name: "DATABASE_URL"}})
	})

	secrets, err := client.ListSecrets(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "DATABASE_URL", secrets[0].Name)
	assert.Empty(t, secrets[0].Value)
}

func TestUpstreamErrorClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.ListProjects(context.Background())
	require.Error(t, err)

	var reqErr *httpclient.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.Status)
	assert.Contains(t, reqErr.UserMessage(), "permission")
}
