package instrumentation

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	// Clear environment to get defaults
	os.Unsetenv("OTEL_SERVICE_NAME")
	os.Unsetenv("INSTRUMENTATION_ENABLED")
	os.Unsetenv("PROMETHEUS_ENDPOINT")
	os.Unsetenv("METRICS_DETAILED_LABELS")

	config := DefaultConfig()

	if config.ServiceName != "arka-gateway" {
		t.Errorf("expected ServiceName 'arka-gateway', got %q", config.ServiceName)
	}

	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}

	if config.PrometheusEndpoint != "/metrics" {
		t.Errorf("expected PrometheusEndpoint '/metrics', got %q", config.PrometheusEndpoint)
	}

	if config.DetailedLabels {
		t.Error("expected DetailedLabels to be false by default")
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	os.Setenv("OTEL_SERVICE_NAME", "test-service")
	os.Setenv("INSTRUMENTATION_ENABLED", "false")
	os.Setenv("METRICS_DETAILED_LABELS", "true")

	defer func() {
		os.Unsetenv("OTEL_SERVICE_NAME")
		os.Unsetenv("INSTRUMENTATION_ENABLED")
		os.Unsetenv("METRICS_DETAILED_LABELS")
	}()

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %q", config.ServiceName)
	}

	if config.Enabled {
		t.Error("expected Enabled to be false")
	}

	if !config.DetailedLabels {
		t.Error("expected DetailedLabels to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{ServiceName: "arka-gateway"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	invalid := Config{}
	if err := invalid.Validate(); err == nil {
		t.Error("expected error for empty service name")
	}
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	os.Setenv("TEST_BOOL_VAR", "not-a-bool")
	defer os.Unsetenv("TEST_BOOL_VAR")

	if !getEnvBoolOrDefault("TEST_BOOL_VAR", true) {
		t.Error("expected default when value cannot be parsed")
	}
}
