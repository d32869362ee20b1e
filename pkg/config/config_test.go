// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.OpenAIAPIModel != "gpt-4" {
		t.Errorf("default model wrong: %q", cfg.OpenAIAPIModel)
	}
	if cfg.RPM != 3 || cfg.MaxTokens != 2048 || cfg.MaxBudget != 10.0 {
		t.Errorf("default limits wrong: rpm=%d tokens=%d budget=%v", cfg.RPM, cfg.MaxTokens, cfg.MaxBudget)
	}
	if cfg.WebBrowserEngine != "playwright" {
		t.Errorf("default browser engine wrong: %q", cfg.WebBrowserEngine)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("default log config wrong: %+v", cfg.Log)
	}
	if cfg.Pipeline.MaxRounds != 3 || cfg.Pipeline.NumSeqs != 10 {
		t.Errorf("default pipeline config wrong: %+v", cfg.Pipeline)
	}
}

func TestLoadFileAndKeyOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
OPENAI_API_KEY: from-config
OPENAI_API_MODEL: gpt-4-turbo
RPM: 10
log:
  level: debug
`)
	// key.yaml next to the config holds private keys and wins
	writeConfig(t, dir, OverrideFile, `
OPENAI_API_KEY: from-key-file
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.OpenAIAPIKey != "from-key-file" {
		t.Errorf("key.yaml should override config.yaml: %q", cfg.OpenAIAPIKey)
	}
	if cfg.OpenAIAPIModel != "gpt-4-turbo" || cfg.RPM != 10 {
		t.Errorf("file values not applied: model=%q rpm=%d", cfg.OpenAIAPIModel, cfg.RPM)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("nested file value not applied: %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
OPENAI_API_KEY: from-file
log:
  level: warn
`)
	t.Setenv("MAESD_OPENAI_API_KEY", "from-env")
	t.Setenv("MAESD_LOG_LEVEL", "debug")
	t.Setenv("MAESD_MEMORY_SQLITE_PATH", "/tmp/steps.db")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.OpenAIAPIKey != "from-env" {
		t.Errorf("env should override file: %q", cfg.OpenAIAPIKey)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("sectioned env key not mapped: %q", cfg.Log.Level)
	}
	if cfg.Memory.SQLitePath != "/tmp/steps.db" {
		t.Errorf("multi-word nested env key not mapped: %q", cfg.Memory.SQLitePath)
	}
}

func TestLoadSetOverridesEverything(t *testing.T) {
	t.Setenv("MAESD_RPM", "7")
	cfg, err := Load("", []string{"RPM=20", "log.level=error"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RPM != 20 {
		t.Errorf("--set should override env: %d", cfg.RPM)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("--set nested key not applied: %q", cfg.Log.Level)
	}
}

func TestLoadRejectsMalformedOverride(t *testing.T) {
	if _, err := Load("", []string{"just-a-key"}); err == nil {
		t.Error("expected error for override without =")
	}
}

func TestEnvKeyMapper(t *testing.T) {
	cases := []struct{ in, want string }{
		{"MAESD_OPENAI_API_KEY", "OPENAI_API_KEY"},
		{"MAESD_LOG_LEVEL", "log.level"},
		{"MAESD_TELEMETRY_OTLP_ENDPOINT", "telemetry.otlp_endpoint"},
		{"MAESD_PIPELINE_MAX_ROUNDS", "pipeline.max_rounds"},
		{"MAESD_MAX_BUDGET", "MAX_BUDGET"},
	}
	for _, tc := range cases {
		if got := envKeyMapper(tc.in); got != tc.want {
			t.Errorf("envKeyMapper(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		override string
	}{
		{"bad browser engine", "WEB_BROWSER_ENGINE=lynx"},
		{"bad playwright browser", "PLAYWRIGHT_BROWSER_TYPE=opera"},
		{"bad selenium browser", "SELENIUM_BROWSER_TYPE=opera"},
		{"negative budget", "MAX_BUDGET=-1"},
		{"zero rpm", "RPM=0"},
		{"zero max tokens", "MAX_TOKENS=0"},
		{"zero rounds", "pipeline.max_rounds=0"},
	}
	for _, tc := range cases {
		if _, err := Load("", []string{tc.override}); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestDefaultProvider(t *testing.T) {
	cfg := &Config{}
	if got := cfg.DefaultProvider(); got != "" {
		t.Errorf("no credentials should select nothing, got %q", got)
	}
	cfg.AnthropicAPIKey = "a"
	if got := cfg.DefaultProvider(); got != "anthropic" {
		t.Errorf("got %q", got)
	}
	cfg.DeepSeekAPIKey = "d"
	if got := cfg.DefaultProvider(); got != "deepseek" {
		t.Errorf("deepseek should outrank anthropic, got %q", got)
	}
	cfg.OpenAIAPIKey = "o"
	if got := cfg.DefaultProvider(); got != "openai" {
		t.Errorf("openai should outrank everything, got %q", got)
	}
}
