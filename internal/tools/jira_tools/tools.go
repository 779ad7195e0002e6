package jira_tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kenislabs/arka-gateway/internal/jira"
	"github.com/kenislabs/arka-gateway/internal/server"
	"github.com/kenislabs/arka-gateway/internal/tools/common"
)

// RegisterJiraTools registers all Jira tools with the MCP server. Jira
// tools are read-only, so the read-only flag has no effect here.
func RegisterJiraTools(s *mcpserver.MCPServer, sc *server.ServerContext, _ bool) error {
	getIssueTool := mcp.NewTool("jira_get_issue",
		mcp.WithDescription("Get a Jira issue by key, e.g. PROJ-123"),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("The issue key, e.g. PROJ-123"),
		),
	)

	s.AddTool(getIssueTool, common.InstrumentedToolHandler("jira_get_issue", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		issueKey, ok := args["issueKey"].(string)
		if !ok || issueKey == "" {
			return mcp.NewToolResultError("issueKey is required"), nil
		}

		issue, err := sc.JiraClient().GetIssue(ctx, issueKey)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(jira.ProviderKey, err)), nil
		}
		return jsonResult(issue)
	}))

	searchIssuesTool := mcp.NewTool("jira_search_issues",
		mcp.WithDescription("Search Jira issues with a JQL query"),
		mcp.WithString("jql",
			mcp.Required(),
			mcp.Description("JQL query, e.g. 'project = PROJ AND status = \"In Progress\"'"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of issues to return (default 25, max 100)"),
		),
	)

	s.AddTool(searchIssuesTool, common.InstrumentedToolHandler("jira_search_issues", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		jql, ok := args["jql"].(string)
		if !ok || jql == "" {
			return mcp.NewToolResultError("jql is required"), nil
		}
		maxResults := 0
		if v, ok := args["maxResults"].(float64); ok {
			maxResults = int(v)
		}

		result, err := sc.JiraClient().SearchIssues(ctx, jql, maxResults)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(jira.ProviderKey, err)), nil
		}
		return jsonResult(result)
	}))

	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
