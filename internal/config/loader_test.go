package config

import (
	"os"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "hello")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_VAR:fallback}", "fallback"},
		{"${UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	content := `
server:
  host: "0.0.0.0"
  port: 9999
chat:
  context_window: 5
`
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	cfg := DefaultConfig()
	if err := LoadFile(tmpFile.Name(), cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Chat.ContextWindow != 5 {
		t.Errorf("expected context window 5, got %d", cfg.Chat.ContextWindow)
	}
	// Untouched sections keep their defaults.
	if cfg.Chat.AppID != "6837b25503c5c1219b17565e" {
		t.Errorf("expected default app id, got %s", cfg.Chat.AppID)
	}
}

func TestLoadFile_WithEnvVars(t *testing.T) {
	os.Setenv("TEST_PORT", "7777")
	defer os.Unsetenv("TEST_PORT")

	tmpFile, err := os.CreateTemp("", "test-config-env-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	content := `
server:
  host: "${TEST_HOST:127.0.0.1}"
  port: ${TEST_PORT}
`
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	cfg := DefaultConfig()
	if err := LoadFile(tmpFile.Name(), cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected port 7777, got %d", cfg.Server.Port)
	}
}

func TestValidateModels(t *testing.T) {
	tests := []struct {
		name    string
		models  ModelsConfig
		wantErr bool
	}{
		{
			name: "valid ordered aliases",
			models: ModelsConfig{
				DefaultModel: "deepseek-ai/DeepSeek-V3",
				Aliases: []AliasConfig{
					{Key: "ds", Model: "deepseek-ai/DeepSeek-V3"},
					{Key: "gg", Model: "gemini-2.0-flash"},
				},
			},
		},
		{
			name:    "missing default model",
			models:  ModelsConfig{Aliases: []AliasConfig{{Key: "ds", Model: "m"}}},
			wantErr: true,
		},
		{
			name: "duplicate alias key",
			models: ModelsConfig{
				DefaultModel: "m",
				Aliases: []AliasConfig{
					{Key: "ds", Model: "a"},
					{Key: "ds", Model: "b"},
				},
			},
			wantErr: true,
		},
		{
			name: "alias missing model",
			models: ModelsConfig{
				DefaultModel: "m",
				Aliases:      []AliasConfig{{Key: "ds"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateModels(&tt.models)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateModels() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
