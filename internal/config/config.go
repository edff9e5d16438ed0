// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages cortex configuration with TOML persistence.
//
// Configuration lives at ~/.cortex/config.toml. A legacy config.json at the
// same location is read as a fallback. Environment variables prefixed with
// CORTEX_ override individual fields at load time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/cortex-chat/cortex-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config holds all cortex settings.
type Config struct {
	// Ollama connection
	Host string `toml:"host" json:"host"`

	// Models
	ChatModel  string `toml:"chat_model" json:"chat_model"`
	TitleModel string `toml:"title_model" json:"title_model"`

	// Generation parameters
	Temperature float64 `toml:"temperature" json:"temperature"`
	NumCtx      int     `toml:"num_ctx" json:"num_ctx"`
	Seed        int     `toml:"seed" json:"seed"` // -1 lets the daemon pick

	// Prompt assembly
	MaxHistoryTurns int    `toml:"max_history_turns" json:"max_history_turns"`
	Persona         string `toml:"persona" json:"persona"`

	// Features
	MemoriesEnabled    bool `toml:"memories_enabled" json:"memories_enabled"`
	SuggestionsEnabled bool `toml:"suggestions_enabled" json:"suggestions_enabled"`

	// UI
	Theme string `toml:"theme" json:"theme"` // "dark" or "light"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Host:               "http://127.0.0.1:11434",
		ChatModel:          "qwen3:8b",
		TitleModel:         "granite4:tiny-h",
		Temperature:        0.7,
		NumCtx:             8192,
		Seed:               -1,
		MaxHistoryTurns:    5,
		MemoriesEnabled:    true,
		SuggestionsEnabled: true,
		Theme:              "dark",
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the cortex configuration directory (~/.cortex).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".cortex"), nil
}

// Path returns the TOML config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration: TOML first, legacy JSON second, defaults
// last. Env overrides and validation are always applied.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit TOML path. A config.json
// next to it is the fallback.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		jsonPath := filepath.Join(filepath.Dir(path), "config.json")
		if data, jerr := os.ReadFile(jsonPath); jerr == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", jsonPath, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML, atomically.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration as TOML to an explicit path.
func (c *Config) SaveTo(path string) error {
	var buf strings.Builder
	buf.WriteString("# cortex configuration\n")
	buf.WriteString("# edit by hand or change settings inside the app\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(buf.String()), 0600)
}

// =============================================================================
// DEFAULTS / VALIDATION / OVERRIDES
// =============================================================================

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.ChatModel == "" {
		c.ChatModel = def.ChatModel
	}
	if c.TitleModel == "" {
		c.TitleModel = def.TitleModel
	}
	if c.NumCtx == 0 {
		c.NumCtx = def.NumCtx
	}
	if c.MaxHistoryTurns == 0 {
		c.MaxHistoryTurns = def.MaxHistoryTurns
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Host, "http://") && !strings.HasPrefix(c.Host, "https://") {
		return &ValidationError{Field: "host", Message: "must start with http:// or https://"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}
	if c.NumCtx < 512 {
		return &ValidationError{Field: "num_ctx", Message: "must be at least 512"}
	}
	if c.MaxHistoryTurns < 1 {
		return &ValidationError{Field: "max_history_turns", Message: "must be at least 1"}
	}
	if c.Theme != "dark" && c.Theme != "light" {
		return &ValidationError{Field: "theme", Message: `must be "dark" or "light"`}
	}
	return nil
}

// ApplyEnvOverrides overrides fields from CORTEX_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CORTEX_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("CORTEX_CHAT_MODEL"); v != "" {
		c.ChatModel = v
	}
	if v := os.Getenv("CORTEX_TITLE_MODEL"); v != "" {
		c.TitleModel = v
	}
	if v := os.Getenv("CORTEX_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("CORTEX_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := os.Getenv("CORTEX_NUM_CTX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.NumCtx = n
		}
	}
	if v := os.Getenv("CORTEX_MEMORIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MemoriesEnabled = b
		}
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

var (
	global     *Config
	globalOnce sync.Once
	globalMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// Load failures fall back to defaults so the UI can still start.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalMu.Lock()
		global = cfg
		globalMu.Unlock()
	})
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	global = cfg
	globalMu.Unlock()
}

// ResetGlobalForTesting clears the singleton. Test use only.
func ResetGlobalForTesting() {
	globalMu.Lock()
	global = nil
	globalMu.Unlock()
	globalOnce = sync.Once{}
}
