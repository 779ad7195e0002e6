package gtasks_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kenislabs/arka-gateway/internal/gtasks"
	"github.com/kenislabs/arka-gateway/internal/server"
	"github.com/kenislabs/arka-gateway/internal/tools/common"
)

// newTasksClient builds a Tasks client for the request context. Clients
// are cheap; the pooled transport underneath is shared.
func newTasksClient(ctx context.Context, sc *server.ServerContext) (*gtasks.Client, error) {
	return gtasks.NewClient(ctx, sc.Resolver(), sc.Pool())
}

// RegisterGTasksTools registers all Google Tasks tools with the MCP server.
// Mutating tools are skipped in read-only mode.
func RegisterGTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTaskListsTool := mcp.NewTool("gtasks_list_task_lists",
		mcp.WithDescription("List all Google Tasks task lists for the authorized user"),
	)

	s.AddTool(listTaskListsTool, common.InstrumentedToolHandler("gtasks_list_task_lists", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, err := newTasksClient(ctx, sc)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}

		lists, err := client.ListTaskLists(ctx)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}
		return jsonResult(lists)
	}))

	listTasksTool := mcp.NewTool("gtasks_list_tasks",
		mcp.WithDescription("List tasks in a task list"),
		mcp.WithString("taskListId",
			mcp.Required(),
			mcp.Description("The ID of the task list"),
		),
		mcp.WithBoolean("showCompleted",
			mcp.Description("Include completed tasks (default: false)"),
		),
	)

	s.AddTool(listTasksTool, common.InstrumentedToolHandler("gtasks_list_tasks", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		taskListID, ok := args["taskListId"].(string)
		if !ok || taskListID == "" {
			return mcp.NewToolResultError("taskListId is required"), nil
		}
		showCompleted, _ := args["showCompleted"].(bool)

		client, err := newTasksClient(ctx, sc)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}

		tasks, err := client.ListTasks(ctx, taskListID, showCompleted)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}
		return jsonResult(tasks)
	}))

	if readOnly {
		return nil
	}

	createTaskTool := mcp.NewTool("gtasks_create_task",
		mcp.WithDescription("Create a new task in a task list"),
		mcp.WithString("taskListId",
			mcp.Required(),
			mcp.Description("The ID of the task list"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("notes",
			mcp.Description("Task notes"),
		),
		mcp.WithString("due",
			mcp.Description("Due date in RFC 3339 format, e.g. 2026-09-15T00:00:00Z"),
		),
	)

	s.AddTool(createTaskTool, common.InstrumentedToolHandler("gtasks_create_task", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		taskListID, ok := args["taskListId"].(string)
		if !ok || taskListID == "" {
			return mcp.NewToolResultError("taskListId is required"), nil
		}
		title, ok := args["title"].(string)
		if !ok || title == "" {
			return mcp.NewToolResultError("title is required"), nil
		}

		input := gtasks.TaskInput{Title: title}
		input.Notes, _ = args["notes"].(string)
		if dueStr, ok := args["due"].(string); ok && dueStr != "" {
			due, err := time.Parse(time.RFC3339, dueStr)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due date %q: use RFC 3339 format", dueStr)), nil
			}
			input.Due = due
		}

		client, err := newTasksClient(ctx, sc)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}

		task, err := client.CreateTask(ctx, taskListID, input)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}
		return jsonResult(task)
	}))

	completeTaskTool := mcp.NewTool("gtasks_complete_task",
		mcp.WithDescription("Mark a task as completed"),
		mcp.WithString("taskListId",
			mcp.Required(),
			mcp.Description("The ID of the task list"),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to complete"),
		),
	)

	s.AddTool(completeTaskTool, common.InstrumentedToolHandler("gtasks_complete_task", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		taskListID, taskID, errResult := taskIDsFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}

		client, err := newTasksClient(ctx, sc)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}

		task, err := client.CompleteTask(ctx, taskListID, taskID)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}
		return jsonResult(task)
	}))

	deleteTaskTool := mcp.NewTool("gtasks_delete_task",
		mcp.WithDescription("Delete a task from a task list"),
		mcp.WithString("taskListId",
			mcp.Required(),
			mcp.Description("The ID of the task list"),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to delete"),
		),
	)

	s.AddTool(deleteTaskTool, common.InstrumentedToolHandler("gtasks_delete_task", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		taskListID, taskID, errResult := taskIDsFromArgs(args)
		if errResult != nil {
			return errResult, nil
		}

		client, err := newTasksClient(ctx, sc)
		if err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}

		if err := client.DeleteTask(ctx, taskListID, taskID); err != nil {
			return mcp.NewToolResultError(common.ToolErrorMessage(gtasks.ProviderKey, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted", taskID)), nil
	}))

	return nil
}

func taskIDsFromArgs(args map[string]interface{}) (string, string, *mcp.CallToolResult) {
	taskListID, ok := args["taskListId"].(string)
	if !ok || taskListID == "" {
		return "", "", mcp.NewToolResultError("taskListId is required")
	}
	taskID, ok := args["taskId"].(string)
	if !ok || taskID == "" {
		return "", "", mcp.NewToolResultError("taskId is required")
	}
	return taskListID, taskID, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
