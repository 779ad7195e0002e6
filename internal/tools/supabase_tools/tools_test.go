package supabase_tools

import (
	"strings"
	"testing"
)

func TestProjectRefFromArgs(t *testing.T) {
	projectRef, errResult := projectRefFromArgs(map[string]interface{}{"projectRef": "abc123"})
	if errResult != nil {
		t.Fatalf("unexpected error result: %v", errResult)
	}
	if projectRef != "abc123" {
		t.Errorf("expected abc123, got %s", projectRef)
	}

	_, errResult = projectRefFromArgs(map[string]interface{}{})
	if errResult == nil {
		t.Error("expected error result for missing projectRef")
	}

	_, errResult = projectRefFromArgs(map[string]interface{}{"projectRef": 42})
	if errResult == nil {
		t.Error("expected error result for non-string projectRef")
	}
}

func TestBranchIDFromArgs(t *testing.T) {
	branchID, errResult := branchIDFromArgs(map[string]interface{}{"branchId": "br-1"})
	if errResult != nil {
		t.Fatalf("unexpected error result: %v", errResult)
	}
	if branchID != "br-1" {
		t.Errorf("expected br-1, got %s", branchID)
	}

	_, errResult = branchIDFromArgs(map[string]interface{}{"branchId": ""})
	if errResult == nil {
		t.Error("expected error result for empty branchId")
	}
}

func TestInspectionQueriesExcludeSystemSchemas(t *testing.T) {
	if !strings.Contains(tableSchemasQuery, "pg_catalog") {
		t.Error("table schema query should exclude pg_catalog")
	}
	if !strings.Contains(tableSchemasQuery, "information_schema.columns") {
		t.Error("table schema query should read information_schema.columns")
	}
}
