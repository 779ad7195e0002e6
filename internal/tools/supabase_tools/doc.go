// Package supabase_tools provides MCP tools for the Supabase management
// API.
//
// # Available Tools
//
// Read:
//   - supabase_list_projects, supabase_list_organizations
//   - supabase_list_tables, supabase_get_table_schemas
//   - supabase_list_api_keys, supabase_list_functions, supabase_get_function
//   - supabase_list_branches, supabase_list_secrets, supabase_list_backups
//
// Write (unavailable in read-only mode):
//   - supabase_run_sql_query
//   - supabase_create_api_key, supabase_delete_api_key
//   - supabase_deploy_function, supabase_delete_function
//   - supabase_create_branch, supabase_delete_branch, supabase_reset_branch
//
// Secret values never pass through tool results; supabase_list_secrets
// returns names only.
package supabase_tools
