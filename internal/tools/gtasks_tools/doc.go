// Package gtasks_tools provides MCP tools for Google Tasks.
//
// # Available Tools
//
//   - gtasks_list_task_lists: List all task lists
//   - gtasks_list_tasks: List tasks in a task list
//   - gtasks_create_task: Create a new task (write mode only)
//   - gtasks_complete_task: Mark a task as completed (write mode only)
//   - gtasks_delete_task: Delete a task (write mode only)
package gtasks_tools
