// cortex - a terminal chat client for local LLMs.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cortex-chat/cortex-tui/internal/config"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
	"github.com/cortex-chat/cortex-tui/internal/session"
	"github.com/cortex-chat/cortex-tui/internal/storage"
	"github.com/cortex-chat/cortex-tui/internal/ui/chat"
	"github.com/cortex-chat/cortex-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "-v":
			fmt.Printf("cortex %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			return
		case "--help", "-h":
			printUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Global()

	store, err := storage.OpenDefault()
	if err != nil {
		return fmt.Errorf("opening chat database: %w", err)
	}
	defer store.Close()

	client := ollama.NewClient(ollama.ClientConfig{Host: cfg.Host})
	mgr := session.NewManager(store, client, cfg)
	theme := styles.NewTheme(cfg.Theme)

	// Bubble Tea owns the terminal; debug output goes to a file instead.
	if os.Getenv("CORTEX_DEBUG") != "" {
		f, err := tea.LogToFile("cortex-debug.log", "cortex")
		if err == nil {
			defer f.Close()
		}
	}

	// Edits to ~/.cortex/config.toml take effect on the next turn.
	if path, err := config.Path(); err == nil {
		if watcher, werr := config.NewWatcher(path, func(c *config.Config) {
			config.SetGlobal(c)
			mgr.SetConfig(c)
		}); werr == nil {
			if werr := watcher.Watch(); werr == nil {
				defer watcher.Close()
			} else {
				watcher.Close()
			}
		}
	}

	program := tea.NewProgram(
		chat.New(mgr, client, theme),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`cortex - chat with local models over Ollama

Usage:
  cortex              start the chat UI
  cortex --version    print version information

Configuration lives at ~/.cortex/config.toml. Environment overrides:
  CORTEX_HOST, CORTEX_CHAT_MODEL, CORTEX_TITLE_MODEL, CORTEX_THEME,
  CORTEX_TEMPERATURE, CORTEX_NUM_CTX, CORTEX_MEMORIES

Run cortex-setup to check the daemon and pull the default models.`)
}
