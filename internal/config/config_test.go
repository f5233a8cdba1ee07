package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		expected time.Duration
	}{
		{"parses duration", "TEST_DUR_1", "90s", 90 * time.Second},
		{"parses bare seconds", "TEST_DUR_2", "30", 30 * time.Second},
		{"uses default for empty", "TEST_DUR_3", "", 2 * time.Minute},
		{"uses default for garbage", "TEST_DUR_4", "soon", 2 * time.Minute},
		{"uses default for negative", "TEST_DUR_5", "-5s", 2 * time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsDurationOrDefault(tc.key, 2*time.Minute)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"API_BASE_URL", "API_TIMEOUT", "PORT", "TRANSLATE_LANGUAGE"} {
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("Expected default API base URL, got %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 120*time.Second {
		t.Errorf("Expected two minute timeout, got %s", cfg.APITimeout)
	}
	if cfg.TranslateLanguage != "hi" {
		t.Errorf("Expected translate language 'hi', got %q", cfg.TranslateLanguage)
	}
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	os.Setenv("API_BASE_URL", "https://mitr.example.com/api/")
	defer os.Unsetenv("API_BASE_URL")

	cfg := Load()
	if cfg.APIBaseURL != "https://mitr.example.com/api" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}
