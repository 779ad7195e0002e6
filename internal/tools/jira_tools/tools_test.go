package jira_tools

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestJSONResult(t *testing.T) {
	result, err := jsonResult(map[string]string{"key": "PROJ-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Error("expected success result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, "PROJ-123") {
		t.Errorf("expected issue key in result, got %s", text.Text)
	}
}
