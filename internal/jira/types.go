package jira

// Issue represents a Jira issue.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the commonly used issue fields.
type IssueFields struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Assignee    *UserField `json:"assignee,omitempty"`
	Reporter    *UserField `json:"reporter,omitempty"`
	IssueType   *IssueType `json:"issuetype,omitempty"`
	Created     string     `json:"created,omitempty"`
	Updated     string     `json:"updated,omitempty"`
}

// Status is the workflow status of an issue.
type Status struct {
	Name string `json:"name"`
}

// Priority is the priority of an issue.
type Priority struct {
	Name string `json:"name"`
}

// UserField identifies a Jira user on an issue.
type UserField struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// IssueType is the type of an issue (Bug, Task, Story, ...).
type IssueType struct {
	Name string `json:"name"`
}

// SearchResult is the response of a JQL search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}
