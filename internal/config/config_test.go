// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.ChatModel == "" || cfg.TitleModel == "" {
		t.Error("default models must be set")
	}
	if cfg.Seed != -1 {
		t.Errorf("Seed = %d, want -1 (daemon picks)", cfg.Seed)
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.ChatModel = "mistral:7b"
	cfg.Temperature = 0.3
	cfg.MemoriesEnabled = false
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.ChatModel != "mistral:7b" {
		t.Errorf("ChatModel = %q", loaded.ChatModel)
	}
	if loaded.Temperature != 0.3 {
		t.Errorf("Temperature = %v", loaded.Temperature)
	}
	if loaded.MemoriesEnabled {
		t.Error("MemoriesEnabled should stay false")
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	loaded, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Host != Default().Host {
		t.Errorf("Host = %q", loaded.Host)
	}
}

func TestLoadFrom_JSONFallback(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(jsonPath, []byte(`{"chat_model":"phi4:latest"}`), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFrom(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.ChatModel != "phi4:latest" {
		t.Errorf("ChatModel = %q, want value from JSON fallback", loaded.ChatModel)
	}
	// Unset fields fall through to defaults.
	if loaded.NumCtx != Default().NumCtx {
		t.Errorf("NumCtx = %d", loaded.NumCtx)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CORTEX_CHAT_MODEL", "gemma3:4b")
	t.Setenv("CORTEX_TEMPERATURE", "1.1")
	t.Setenv("CORTEX_MEMORIES", "false")

	loaded, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.ChatModel != "gemma3:4b" {
		t.Errorf("ChatModel = %q", loaded.ChatModel)
	}
	if loaded.Temperature != 1.1 {
		t.Errorf("Temperature = %v", loaded.Temperature)
	}
	if loaded.MemoriesEnabled {
		t.Error("MemoriesEnabled should be overridden to false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad host", func(c *Config) { c.Host = "localhost:11434" }, "host"},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, "temperature"},
		{"tiny context", func(c *Config) { c.NumCtx = 16 }, "num_ctx"},
		{"bad theme", func(c *Config) { c.Theme = "solarized" }, "theme"},
		{"zero window", func(c *Config) { c.MaxHistoryTurns = 0 }, "max_history_turns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("error type = %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}
