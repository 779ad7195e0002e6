package github_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kenislabs/arka-gateway/internal/github"
	"github.com/kenislabs/arka-gateway/internal/server"
	"github.com/kenislabs/arka-gateway/internal/tools/common"
)

// RegisterGitHubTools registers all GitHub-related tools with the MCP server.
// Mutating tools are skipped in read-only mode.
func RegisterGitHubTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerReadTools(s, sc)
	if !readOnly {
		registerWriteTools(s, sc)
	}
	return nil
}

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	getUserTool := mcp.NewTool("github_get_user",
		mcp.WithDescription("Get the authenticated GitHub user"),
	)

	s.AddTool(getUserTool, common.InstrumentedToolHandler("github_get_user", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := sc.GitHubClient().GetUser(ctx)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(user)
	}))

	listReposTool := mcp.NewTool("github_list_repos",
		mcp.WithDescription("List repositories for the authenticated user, most recently updated first"),
		mcp.WithNumber("perPage",
			mcp.Description("Number of repositories to return (default 30, max 100)"),
		),
	)

	s.AddTool(listReposTool, common.InstrumentedToolHandler("github_list_repos", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		perPage := 0
		if v, ok := args["perPage"].(float64); ok {
			perPage = int(v)
		}

		repos, err := sc.GitHubClient().ListRepos(ctx, perPage)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(repos)
	}))

	getRepoTool := mcp.NewTool("github_get_repo",
		mcp.WithDescription("Get details of a repository"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner (user or organization)"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
	)

	s.AddTool(getRepoTool, common.InstrumentedToolHandler("github_get_repo", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, repo, errResult := ownerRepoFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		result, err := sc.GitHubClient().GetRepo(ctx, owner, repo)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(result)
	}))

	listIssuesTool := mcp.NewTool("github_list_issues",
		mcp.WithDescription("List issues in a repository"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner (user or organization)"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("state",
			mcp.Description("Issue state filter: open, closed or all (default: open)"),
		),
	)

	s.AddTool(listIssuesTool, common.InstrumentedToolHandler("github_list_issues", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		owner, repo, errResult := ownerRepoFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		state, _ := args["state"].(string)

		issues, err := sc.GitHubClient().ListIssues(ctx, owner, repo, state)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(issues)
	}))

	getPRTool := mcp.NewTool("github_get_pull_request",
		mcp.WithDescription("Get a pull request by number"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner (user or organization)"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithNumber("number",
			mcp.Required(),
			mcp.Description("Pull request number"),
		),
	)

	s.AddTool(getPRTool, common.InstrumentedToolHandler("github_get_pull_request", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		owner, repo, errResult := ownerRepoFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		number, ok := args["number"].(float64)
		if !ok || number <= 0 {
			return mcp.NewToolResultError("number is required"), nil
		}

		pr, err := sc.GitHubClient().GetPullRequest(ctx, owner, repo, int(number))
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(pr)
	}))
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createIssueTool := mcp.NewTool("github_create_issue",
		mcp.WithDescription("Create a new issue in a repository"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner (user or organization)"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Issue title"),
		),
		mcp.WithString("body",
			mcp.Description("Issue body in Markdown"),
		),
	)

	s.AddTool(createIssueTool, common.InstrumentedToolHandler("github_create_issue", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		owner, repo, errResult := ownerRepoFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		title, ok := args["title"].(string)
		if !ok || title == "" {
			return mcp.NewToolResultError("title is required"), nil
		}
		body, _ := args["body"].(string)

		issue, err := sc.GitHubClient().CreateIssue(ctx, owner, repo, github.IssueInput{Title: title, Body: body})
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(issue)
	}))

	updateIssueTool := mcp.NewTool("github_update_issue",
		mcp.WithDescription("Update an issue's title, body or state"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner (user or organization)"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithNumber("number",
			mcp.Required(),
			mcp.Description("Issue number"),
		),
		mcp.WithString("title",
			mcp.Description("New issue title"),
		),
		mcp.WithString("body",
			mcp.Description("New issue body in Markdown"),
		),
		mcp.WithString("state",
			mcp.Description("New issue state: open or closed"),
		),
	)

	s.AddTool(updateIssueTool, common.InstrumentedToolHandler("github_update_issue", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		owner, repo, errResult := ownerRepoFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		number, ok := args["number"].(float64)
		if !ok || number <= 0 {
			return mcp.NewToolResultError("number is required"), nil
		}

		input := github.IssueInput{}
		input.Title, _ = args["title"].(string)
		input.Body, _ = args["body"].(string)
		input.State, _ = args["state"].(string)

		issue, err := sc.GitHubClient().UpdateIssue(ctx, owner, repo, int(number), input)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return jsonResult(issue)
	}))

	mergePRTool := mcp.NewTool("github_merge_pull_request",
		mcp.WithDescription("Merge a pull request"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner (user or organization)"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithNumber("number",
			mcp.Required(),
			mcp.Description("Pull request number"),
		),
		mcp.WithString("commitMessage",
			mcp.Description("Commit message for the merge commit"),
		),
	)

	s.AddTool(mergePRTool, common.InstrumentedToolHandler("github_merge_pull_request", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		owner, repo, errResult := ownerRepoFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		number, ok := args["number"].(float64)
		if !ok || number <= 0 {
			return mcp.NewToolResultError("number is required"), nil
		}
		message, _ := args["commitMessage"].(string)

		result, err := sc.GitHubClient().MergePullRequest(ctx, owner, repo, int(number), message)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(github.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Pull request #%d merged: %s", int(number), result.SHA)), nil
	}))
}

func ownerRepoFromArgs(args map[string]interface{}) (string, string, *mcp.CallToolResult) {
	owner, ok := args["owner"].(string)
	if !ok || owner == "" {
		return "", "", mcp.NewToolResultError("owner is required")
	}
	repo, ok := args["repo"].(string)
	if !ok || repo == "" {
		return "", "", mcp.NewToolResultError("repo is required")
	}
	return owner, repo, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
