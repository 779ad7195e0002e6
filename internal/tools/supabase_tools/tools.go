package supabase_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kenislabs/arka-gateway/internal/server"
	"github.com/kenislabs/arka-gateway/internal/supabase"
	"github.com/kenislabs/arka-gateway/internal/tools/common"
)

// listTablesQuery enumerates tables in one schema.
const listTablesQuery = `select table_name from information_schema.tables where table_schema = '%s' order by table_name`

// tableSchemasQuery returns column definitions for all user tables.
const tableSchemasQuery = `select table_schema, table_name, column_name, data_type, is_nullable
from information_schema.columns
where table_schema not in ('pg_catalog', 'information_schema')
order by table_schema, table_name, ordinal_position`

// RegisterSupabaseTools registers all Supabase management tools with the
// MCP server. Mutating tools, including arbitrary SQL, are skipped in
// read-only mode.
func RegisterSupabaseTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerProjectTools(s, sc)
	registerInspectionTools(s, sc)
	if !readOnly {
		registerWriteTools(s, sc)
	}
	return nil
}

func registerProjectTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listProjectsTool := mcp.NewTool("supabase_list_projects",
		mcp.WithDescription("List all Supabase projects visible to the authorized user"),
	)

	s.AddTool(listProjectsTool, common.InstrumentedToolHandler("supabase_list_projects", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := sc.SupabaseClient().ListProjects(ctx)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(projects)
	}))

	listOrgsTool := mcp.NewTool("supabase_list_organizations",
		mcp.WithDescription("List the authorized user's Supabase organizations"),
	)

	s.AddTool(listOrgsTool, common.InstrumentedToolHandler("supabase_list_organizations", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		orgs, err := sc.SupabaseClient().ListOrganizations(ctx)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(orgs)
	}))
}

func registerInspectionTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listTablesTool := mcp.NewTool("supabase_list_tables",
		mcp.WithDescription("List tables in a project database schema"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("schema",
			mcp.Description("Database schema to list (default: public)"),
		),
	)

	s.AddTool(listTablesTool, common.InstrumentedToolHandler("supabase_list_tables", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		schema, _ := args["schema"].(string)
		if schema == "" {
			schema = "public"
		}

		rows, err := sc.SupabaseClient().RunQuery(ctx, projectRef, fmt.Sprintf(listTablesQuery, schema))
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(string(rows)), nil
	}))

	tableSchemasTool := mcp.NewTool("supabase_get_table_schemas",
		mcp.WithDescription("Get column definitions for all user tables in a project database"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
	)

	s.AddTool(tableSchemasTool, common.InstrumentedToolHandler("supabase_get_table_schemas", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectRef, errResult := projectRefFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		rows, err := sc.SupabaseClient().RunQuery(ctx, projectRef, tableSchemasQuery)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(string(rows)), nil
	}))

	listAPIKeysTool := mcp.NewTool("supabase_list_api_keys",
		mcp.WithDescription("List a project's API keys"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
	)

	s.AddTool(listAPIKeysTool, common.InstrumentedToolHandler("supabase_list_api_keys", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectRef, errResult := projectRefFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		keys, err := sc.SupabaseClient().ListAPIKeys(ctx, projectRef)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(keys)
	}))

	listFunctionsTool := mcp.NewTool("supabase_list_functions",
		mcp.WithDescription("List a project's edge functions"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
	)

	s.AddTool(listFunctionsTool, common.InstrumentedToolHandler("supabase_list_functions", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectRef, errResult := projectRefFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		fns, err := sc.SupabaseClient().ListFunctions(ctx, projectRef)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(fns)
	}))

	getFunctionTool := mcp.NewTool("supabase_get_function",
		mcp.WithDescription("Get an edge function by slug"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The edge function slug"),
		),
	)

	s.AddTool(getFunctionTool, common.InstrumentedToolHandler("supabase_get_function", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		slug, ok := args["slug"].(string)
		if !ok || slug == "" {
			return mcp.NewToolResultError("slug is required"), nil
		}

		fn, err := sc.SupabaseClient().GetFunction(ctx, projectRef, slug)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(fn)
	}))

	listBranchesTool := mcp.NewTool("supabase_list_branches",
		mcp.WithDescription("List a project's database preview branches"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
	)

	s.AddTool(listBranchesTool, common.InstrumentedToolHandler("supabase_list_branches", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectRef, errResult := projectRefFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		branches, err := sc.SupabaseClient().ListBranches(ctx, projectRef)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(branches)
	}))

	listSecretsTool := mcp.NewTool("supabase_list_secrets",
		mcp.WithDescription("List a project's secret names (values are never returned)"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
	)

	s.AddTool(listSecretsTool, common.InstrumentedToolHandler("supabase_list_secrets", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectRef, errResult := projectRefFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		secrets, err := sc.SupabaseClient().ListSecrets(ctx, projectRef)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		names := make([]string, 0, len(secrets))
		for _, secret := range secrets {
			names = append(names, secret.Name)
		}
		return jsonResult(names)
	}))

	listBackupsTool := mcp.NewTool("supabase_list_backups",
		mcp.WithDescription("List a project's database backups"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
	)

	s.AddTool(listBackupsTool, common.InstrumentedToolHandler("supabase_list_backups", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectRef, errResult := projectRefFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		backups, err := sc.SupabaseClient().ListBackups(ctx, projectRef)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(backups)
	}))
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	runQueryTool := mcp.NewTool("supabase_run_sql_query",
		mcp.WithDescription("Run a SQL query against a project database"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SQL query to execute"),
		),
	)

	s.AddTool(runQueryTool, common.InstrumentedToolHandler("supabase_run_sql_query", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		rows, err := sc.SupabaseClient().RunQuery(ctx, projectRef, query)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(string(rows)), nil
	}))

	createAPIKeyTool := mcp.NewTool("supabase_create_api_key",
		mcp.WithDescription("Create a new project API key"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("API key type: publishable or secret"),
		),
		mcp.WithString("description",
			mcp.Description("Description of what the key is for"),
		),
	)

	s.AddTool(createAPIKeyTool, common.InstrumentedToolHandler("supabase_create_api_key", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		keyType, ok := args["type"].(string)
		if !ok || keyType == "" {
			return mcp.NewToolResultError("type is required"), nil
		}
		description, _ := args["description"].(string)

		key, err := sc.SupabaseClient().CreateAPIKey(ctx, projectRef, supabase.APIKeyInput{
			Type:        keyType,
			Description: description,
		})
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(key)
	}))

	deleteAPIKeyTool := mcp.NewTool("supabase_delete_api_key",
		mcp.WithDescription("Delete a project API key"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("keyId",
			mcp.Required(),
			mcp.Description("The ID of the API key to delete"),
		),
	)

	s.AddTool(deleteAPIKeyTool, common.InstrumentedToolHandler("supabase_delete_api_key", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		keyID, ok := args["keyId"].(string)
		if !ok || keyID == "" {
			return mcp.NewToolResultError("keyId is required"), nil
		}

		if err := sc.SupabaseClient().DeleteAPIKey(ctx, projectRef, keyID); err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("API key %s deleted", keyID)), nil
	}))

	deployFunctionTool := mcp.NewTool("supabase_deploy_function",
		mcp.WithDescription("Deploy an edge function from source (creates or updates by slug)"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The edge function slug"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("TypeScript source of the function"),
		),
		mcp.WithString("name",
			mcp.Description("Display name (defaults to the slug)"),
		),
		mcp.WithBoolean("verifyJwt",
			mcp.Description("Require a valid JWT on invocation (default false)"),
		),
	)

	s.AddTool(deployFunctionTool, common.InstrumentedToolHandler("supabase_deploy_function", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		slug, ok := args["slug"].(string)
		if !ok || slug == "" {
			return mcp.NewToolResultError("slug is required"), nil
		}
		body, ok := args["body"].(string)
		if !ok || body == "" {
			return mcp.NewToolResultError("body is required"), nil
		}
		input := supabase.FunctionInput{Slug: slug, Body: body}
		if name, ok := args["name"].(string); ok {
			input.Name = name
		}
		if verify, ok := args["verifyJwt"].(bool); ok {
			input.Verify = verify
		}

		fn, err := sc.SupabaseClient().DeployFunction(ctx, projectRef, input)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(fn)
	}))

	deleteFunctionTool := mcp.NewTool("supabase_delete_function",
		mcp.WithDescription("Delete an edge function"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The edge function slug"),
		),
	)

	s.AddTool(deleteFunctionTool, common.InstrumentedToolHandler("supabase_delete_function", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		slug, ok := args["slug"].(string)
		if !ok || slug == "" {
			return mcp.NewToolResultError("slug is required"), nil
		}

		if err := sc.SupabaseClient().DeleteFunction(ctx, projectRef, slug); err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Edge function %s deleted", slug)), nil
	}))

	createBranchTool := mcp.NewTool("supabase_create_branch",
		mcp.WithDescription("Create a database preview branch"),
		mcp.WithString("projectRef",
			mcp.Required(),
			mcp.Description("The project reference ID"),
		),
		mcp.WithString("branchName",
			mcp.Required(),
			mcp.Description("Name for the new branch"),
		),
	)

	s.AddTool(createBranchTool, common.InstrumentedToolHandler("supabase_create_branch", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		projectRef, errResult := projectRefFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}
		branchName, ok := args["branchName"].(string)
		if !ok || branchName == "" {
			return mcp.NewToolResultError("branchName is required"), nil
		}

		branch, err := sc.SupabaseClient().CreateBranch(ctx, projectRef, supabase.BranchInput{BranchName: branchName})
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return jsonResult(branch)
	}))

	deleteBranchTool := mcp.NewTool("supabase_delete_branch",
		mcp.WithDescription("Delete a database preview branch"),
		mcp.WithString("branchId",
			mcp.Required(),
			mcp.Description("The ID of the branch to delete"),
		),
	)

	s.AddTool(deleteBranchTool, common.InstrumentedToolHandler("supabase_delete_branch", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		branchID, errResult := branchIDFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		if err := sc.SupabaseClient().DeleteBranch(ctx, branchID); err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Branch %s deleted", branchID)), nil
	}))

	resetBranchTool := mcp.NewTool("supabase_reset_branch",
		mcp.WithDescription("Reset a database preview branch to its migration state"),
		mcp.WithString("branchId",
			mcp.Required(),
			mcp.Description("The ID of the branch to reset"),
		),
	)

	s.AddTool(resetBranchTool, common.InstrumentedToolHandler("supabase_reset_branch", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		branchID, errResult := branchIDFromArgs(request.GetArguments())
		if errResult != nil {
			return errResult, nil
		}

		if err := sc.SupabaseClient().ResetBranch(ctx, branchID); err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(supabase.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Branch %s reset", branchID)), nil
	}))
}

func projectRefFromArgs(args map[string]interface{}) (string, *mcp.CallToolResult) {
	projectRef, ok := args["projectRef"].(string)
	if !ok || projectRef == "" {
		return "", mcp.NewToolResultError("projectRef is required")
	}
	return projectRef, nil
}

func branchIDFromArgs(args map[string]interface{}) (string, *mcp.CallToolResult) {
	branchID, ok := args["branchId"].(string)
	if !ok || branchID == "" {
		return "", mcp.NewToolResultError("branchId is required")
	}
	return branchID, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
