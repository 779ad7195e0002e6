// Package jira_tools provides MCP tools for Jira Cloud.
//
// # Available Tools
//
//   - jira_get_issue: Get an issue by key
//   - jira_search_issues: Search issues with JQL
package jira_tools
