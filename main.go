// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnimind-tui/internal/cli"
	"github.com/jeranaias/omnimind-tui/internal/config"
	"github.com/jeranaias/omnimind-tui/internal/gemini"
	"github.com/jeranaias/omnimind-tui/internal/store"
	"github.com/jeranaias/omnimind-tui/internal/storage"
	"github.com/jeranaias/omnimind-tui/internal/submit"
	"github.com/jeranaias/omnimind-tui/internal/telemetry"
	"github.com/jeranaias/omnimind-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// Global program reference for async streaming. Turn events and store
// snapshots arrive from other goroutines and enter the Bubble Tea loop
// through Program.Send.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	var (
		plain       = flag.Bool("plain", false, "run the line-based REPL instead of the TUI")
		configPath  = flag.String("config", "", "config file path (default ~/.omnimind/config.toml)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("omnimind %s (%s)\n", Version, GitCommit)
		return
	}

	if err := run(*plain, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging redirects the standard logger to a file under the data
// dir. Stderr is unusable once the TUI takes the alternate screen.
func setupLogging(dataDir string) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		log.SetOutput(io.Discard)
		return
	}
	path := filepath.Join(dataDir, "omnimind.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags)
}

func run(plain bool, configPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	setupLogging(cfg.Storage.DataDir)

	ctx := context.Background()

	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:            cfg.API.Key,
		ChatModel:         cfg.API.ChatModel,
		TitleModel:        cfg.API.TitleModel,
		Temperature:       cfg.Generation.Temperature,
		TopP:              cfg.Generation.TopP,
		TopK:              cfg.Generation.TopK,
		RequestsPerMinute: cfg.API.RequestsPerMinute,
	})
	if err != nil {
		return err
	}

	// Persistence: load history, seed the store, save after every change.
	sessions := storage.NewSessionStoreAt(cfg.Storage.DataDir)
	loaded, activeID, err := sessions.Load()
	if err != nil {
		return err
	}

	st := store.New()
	st.Seed(loaded, activeID)

	// Usage stats are optional; the chat works without them.
	var usage *telemetry.UsageStore
	if u, uerr := telemetry.Open(filepath.Join(cfg.Storage.DataDir, "usage.db")); uerr == nil {
		usage = u
		defer usage.Close()
	} else {
		log.Printf("USAGE_DB_ERROR | error=%v stats_disabled", uerr)
	}

	controller := submit.New(st, client, usage)

	if plain || !cli.IsInteractive() {
		st.OnChange(func(snap store.Snapshot) {
			if serr := sessions.Save(snap.Sessions, snap.ActiveID); serr != nil {
				log.Printf("SAVE_ERROR | error=%v", serr)
			}
		})
		return cli.NewREPL(st, controller, cfg.Storage.DataDir).Run(ctx)
	}
	return runTUI(cfg, client, st, sessions, controller, usage)
}

func runTUI(cfg *config.Config, client *gemini.Client, st *store.Store, sessions *storage.SessionStore, controller *submit.Controller, usage *telemetry.UsageStore) error {
	// Snapshots reach the program through a coalescing forwarder. The
	// observer must never block: store mutations also happen on the
	// Bubble Tea loop itself, and Program.Send from inside Update waits
	// on the loop forever. Each snapshot is complete state, so when the
	// program lags only the newest one matters.
	snaps := make(chan store.Snapshot, 1)
	go func() {
		for snap := range snaps {
			sendToProgram(chat.SnapshotMsg{Snapshot: snap})
		}
	}()
	st.OnChange(func(snap store.Snapshot) {
		if serr := sessions.Save(snap.Sessions, snap.ActiveID); serr != nil {
			log.Printf("SAVE_ERROR | error=%v", serr)
		}
		for {
			select {
			case snaps <- snap:
				return
			default:
			}
			select {
			case <-snaps:
			default:
			}
		}
	})
	controller.SetListener(func(ev submit.Event) {
		sendToProgram(chat.TurnEventMsg{Event: ev})
	})

	// Live-reload the config file: generation settings swap on the
	// client, cheap UI settings apply inside the program. The API key
	// and rate limit stay fixed until restart.
	if path, err := config.Path(); err == nil {
		if watcher, werr := config.NewWatcher(path, func(next *config.Config) {
			client.ApplyOptions(gemini.Options{
				ChatModel:   next.API.ChatModel,
				TitleModel:  next.API.TitleModel,
				Temperature: next.Generation.Temperature,
				TopP:        next.Generation.TopP,
				TopK:        next.Generation.TopK,
			})
			sendToProgram(chat.ConfigReloadedMsg{Config: next})
		}); werr == nil {
			defer watcher.Close()
		} else {
			log.Printf("CONFIG_WATCH_ERROR | error=%v", werr)
		}
	}

	m := chat.New(chat.Options{
		Store:       st,
		Controller:  controller,
		Usage:       usage,
		ShowSidebar: cfg.UI.ShowSidebar,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running omnimind: %w", err)
	}
	return nil
}
