// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main provides cortex-setup, which checks the Ollama daemon
// and pulls the models the chat client is configured to use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cortex-chat/cortex-tui/internal/config"
	"github.com/cortex-chat/cortex-tui/internal/ollama"
)

func main() {
	host := flag.String("host", "", "Ollama host (defaults to the configured one)")
	extra := flag.String("model", "", "additional model to pull, comma separated")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall pull timeout")
	flag.Parse()

	if err := run(*host, *extra, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := ollama.UserHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

func run(host, extra string, timeout time.Duration) error {
	cfg := config.Global()
	if host == "" {
		host = cfg.Host
	}
	client := ollama.NewClient(ollama.ClientConfig{Host: host})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("Checking Ollama at %s ... ", host)
	if err := client.CheckRunning(ctx); err != nil {
		fmt.Println("unreachable")
		return err
	}
	fmt.Println("ok")

	wanted := []string{cfg.ChatModel, cfg.TitleModel}
	for _, m := range strings.Split(extra, ",") {
		if m = strings.TrimSpace(m); m != "" {
			wanted = append(wanted, m)
		}
	}

	for _, name := range dedupe(wanted) {
		ok, err := client.HasModel(ctx, name)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("%s: already installed\n", describeModel(name))
			continue
		}
		if err := pullWithProgress(ctx, client, name); err != nil {
			return fmt.Errorf("pulling %s: %w", name, err)
		}
	}

	fmt.Println("\nAll set. Start chatting with: cortex")
	return nil
}

// pullWithProgress streams pull progress. On a terminal the current
// layer's percentage redraws in place; otherwise each status prints once.
func pullWithProgress(ctx context.Context, client *ollama.Client, name string) error {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	width := 80
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	fmt.Printf("%s: downloading\n", describeModel(name))

	lastStatus := ""
	err := client.Pull(ctx, name, func(p ollama.PullProgress) {
		if !isTTY {
			if p.Status != lastStatus {
				fmt.Printf("  %s\n", p.Status)
				lastStatus = p.Status
			}
			return
		}
		line := "  " + p.Status
		if pct := p.Percent(); pct >= 0 {
			line = fmt.Sprintf("  %s %s %3.0f%%", p.Status, bar(pct, 30), pct)
		}
		if len(line) > width-1 {
			line = line[:width-1]
		}
		fmt.Printf("\r%-*s", width-1, line)
	})
	if isTTY {
		fmt.Println()
	}
	return err
}

// bar renders a fixed-width progress bar.
func bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// describeModel shows "Qwen3 (qwen3:8b)" style labels.
func describeModel(name string) string {
	family := name
	if i := strings.IndexByte(family, ':'); i > 0 {
		family = family[:i]
	}
	pretty := cases.Title(language.English).String(family)
	return fmt.Sprintf("%s (%s)", pretty, name)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
