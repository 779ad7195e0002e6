package gtasks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/kenislabs/arka-gateway/internal/httpclient"
)

const (
	// Service is the client-pool service name for Google Tasks.
	Service = "gtasks"
	// ProviderKey is the OAuth provider key tokens are resolved under.
	ProviderKey = "gtasks-mcp"
)

// Client wraps the Google Tasks service for one request context. The
// underlying transport comes from the shared pool with tokens resolved
// for the context's principal.
type Client struct {
	svc *tasks.Service
}

// resolverTokenSource adapts the gateway token source to oauth2.
// The request context is captured because oauth2.TokenSource carries none.
type resolverTokenSource struct {
	ctx    context.Context
	tokens httpclient.TokenSource
}

func (s *resolverTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.tokens.ResolveToken(s.ctx, ProviderKey)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// NewClient creates a Tasks client bound to the request context's
// principal. Create one per request; the pooled transport underneath is
// shared.
func NewClient(ctx context.Context, tokens httpclient.TokenSource, pool *httpclient.Pool) (*Client, error) {
	httpClient := *pool.Client(Service)
	httpClient.Transport = &oauth2.Transport{
		Source: &resolverTokenSource{ctx: ctx, tokens: tokens},
		Base:   pool.Client(Service).Transport,
	}

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(&httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListTaskLists lists all task lists for the authorized user, following
// pagination until exhausted.
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	var taskLists []TaskList
	pageToken := ""
	for {
		call := c.svc.Tasklists.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list task lists: %w", err)
		}
		for _, tl := range result.Items {
			taskLists = append(taskLists, toTaskList(tl))
		}
		if result.NextPageToken == "" {
			return taskLists, nil
		}
		pageToken = result.NextPageToken
	}
}

// ListTasks lists tasks in a task list. Completed tasks are included
// when showCompleted is true.
func (c *Client) ListTasks(ctx context.Context, taskListID string, showCompleted bool) ([]Task, error) {
	call := c.svc.Tasks.List(taskListID).Context(ctx)
	if showCompleted {
		call = call.ShowCompleted(true).ShowHidden(true)
	}

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var taskList []Task
	for _, t := range result.Items {
		taskList = append(taskList, toTask(t))
	}
	return taskList, nil
}

// CreateTask creates a new task in the given task list.
func (c *Client) CreateTask(ctx context.Context, taskListID string, input TaskInput) (*Task, error) {
	t := &tasks.Task{
		Title: input.Title,
		Notes: input.Notes,
	}
	if !input.Due.IsZero() {
		t.Due = input.Due.Format(time.RFC3339)
	}

	call := c.svc.Tasks.Insert(taskListID, t).Context(ctx)
	if input.Parent != "" {
		call = call.Parent(input.Parent)
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	result := toTask(created)
	return &result, nil
}

// CompleteTask marks a task as completed.
func (c *Client) CompleteTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	existing, err := c.svc.Tasks.Get(taskListID, taskID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	existing.Status = "completed"
	completedTime := time.Now().Format(time.RFC3339)
	existing.Completed = &completedTime

	updated, err := c.svc.Tasks.Update(taskListID, taskID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	result := toTask(updated)
	return &result, nil
}

// DeleteTask deletes a task from a task list.
func (c *Client) DeleteTask(ctx context.Context, taskListID, taskID string) error {
	if err := c.svc.Tasks.Delete(taskListID, taskID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
