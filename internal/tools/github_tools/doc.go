// Package github_tools provides MCP tools for working with GitHub on
// behalf of the authorized user.
//
// # Available Tools
//
// Read:
//   - github_get_user: Get the authenticated user
//   - github_list_repos: List repositories for the authenticated user
//   - github_get_repo: Get details of a repository
//   - github_list_issues: List issues in a repository
//   - github_get_pull_request: Get a pull request by number
//
// Write (unavailable in read-only mode):
//   - github_create_issue: Create a new issue
//   - github_update_issue: Update an issue's title, body or state
//   - github_merge_pull_request: Merge a pull request
//
// Tokens are resolved per principal through the provider registry; when a
// principal has not authorized GitHub, tools return instructions for the
// authorization flow instead of failing opaquely.
package github_tools
