package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "test_operation")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithTool(t *testing.T) {
	logger := slog.Default()
	result := WithTool(logger, "test_tool")
	if result == nil {
		t.Error("WithTool returned nil")
	}
}

func TestWithService(t *testing.T) {
	logger := slog.Default()
	result := WithService(logger, "github")
	if result == nil {
		t.Error("WithService returned nil")
	}
}

func TestWithProvider(t *testing.T) {
	logger := slog.Default()
	result := WithProvider(logger, "github-mcp")
	if result == nil {
		t.Error("WithProvider returned nil")
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation("test_op")
	if attr.Key != KeyOperation {
		t.Errorf("Operation key = %q, want %q", attr.Key, KeyOperation)
	}
	if attr.Value.String() != "test_op" {
		t.Errorf("Operation value = %q, want %q", attr.Value.String(), "test_op")
	}
}

func TestServiceAttr(t *testing.T) {
	attr := Service("jira")
	if attr.Key != KeyService {
		t.Errorf("Service key = %q, want %q", attr.Key, KeyService)
	}
	if attr.Value.String() != "jira" {
		t.Errorf("Service value = %q, want %q", attr.Value.String(), "jira")
	}
}

func TestProviderAttr(t *testing.T) {
	attr := Provider("gtasks-mcp")
	if attr.Key != KeyProvider {
		t.Errorf("Provider key = %q, want %q", attr.Key, KeyProvider)
	}
	if attr.Value.String() != "gtasks-mcp" {
		t.Errorf("Provider value = %q, want %q", attr.Value.String(), "gtasks-mcp")
	}
}

func TestToolAttr(t *testing.T) {
	attr := Tool("github_list_repos")
	if attr.Key != KeyTool {
		t.Errorf("Tool key = %q, want %q", attr.Key, KeyTool)
	}
	if attr.Value.String() != "github_list_repos" {
		t.Errorf("Tool value = %q, want %q", attr.Value.String(), "github_list_repos")
	}
}

func TestStatusAttr(t *testing.T) {
	attr := Status(StatusSuccess)
	if attr.Key != KeyStatus {
		t.Errorf("Status key = %q, want %q", attr.Key, KeyStatus)
	}
	if attr.Value.String() != StatusSuccess {
		t.Errorf("Status value = %q, want %q", attr.Value.String(), StatusSuccess)
	}
}

func TestErr(t *testing.T) {
	// Test with error
	err := errors.New("test error")
	attr := Err(err)
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// Test with nil - should return an empty group that slog will omit
	attr = Err(nil)
	// Empty Group has empty key
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizePrincipal(t *testing.T) {
	tests := []struct {
		principal string
		wantLen   int  // Expected length of result (0 for empty)
		hasValue  bool // Whether result should have a value
	}{
		{"user-alice", 26, true}, // "principal:" + 16 hex chars
		{"jane@example.com", 26, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.principal, func(t *testing.T) {
			result := AnonymizePrincipal(tt.principal)
			if tt.hasValue {
				if len(result) != tt.wantLen {
					t.Errorf("AnonymizePrincipal(%q) length = %d, want %d", tt.principal, len(result), tt.wantLen)
				}
				if result[:10] != "principal:" {
					t.Errorf("AnonymizePrincipal(%q) should start with 'principal:', got %q", tt.principal, result)
				}
			} else {
				if result != "" {
					t.Errorf("AnonymizePrincipal(%q) = %q, want empty string", tt.principal, result)
				}
			}
		})
	}

	// Test deterministic hashing
	hash1 := AnonymizePrincipal("user-alice")
	hash2 := AnonymizePrincipal("user-alice")
	if hash1 != hash2 {
		t.Error("AnonymizePrincipal should return deterministic results")
	}

	// Test different principals produce different hashes
	hash3 := AnonymizePrincipal("user-bob")
	if hash1 == hash3 {
		t.Error("Different principals should produce different hashes")
	}
}

func TestPrincipalHash(t *testing.T) {
	attr := PrincipalHash("user-alice")
	if attr.Key != KeyPrincipalHash {
		t.Errorf("PrincipalHash key = %q, want %q", attr.Key, KeyPrincipalHash)
	}
	if len(attr.Value.String()) != 26 {
		t.Errorf("PrincipalHash value length = %d, want 26", len(attr.Value.String()))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := SanitizeToken(tt.token)
			if result != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, result, tt.expected)
			}
		})
	}
}

func TestStatusConstants(t *testing.T) {
	if StatusSuccess != "success" {
		t.Errorf("StatusSuccess = %q, want %q", StatusSuccess, "success")
	}
	if StatusError != "error" {
		t.Errorf("StatusError = %q, want %q", StatusError, "error")
	}
}
