// pillow - AI chat for your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pillow-tui/internal/chat"
	"github.com/jeranaias/pillow-tui/internal/config"
	"github.com/jeranaias/pillow-tui/internal/model"
	"github.com/jeranaias/pillow-tui/internal/openrouter"
	"github.com/jeranaias/pillow-tui/internal/storage"
	"github.com/jeranaias/pillow-tui/internal/store"
	"github.com/jeranaias/pillow-tui/internal/ui"
	"github.com/jeranaias/pillow-tui/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd := ""
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "", "tui":
		runTUI()
	case "sessions":
		handleSessions()
	case "export":
		handleExport(args)
	case "version", "--version", "-v":
		fmt.Printf("pillow %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`pillow - AI chat for your terminal

Usage:
  pillow              Start the chat interface
  pillow sessions     List saved chat sessions
  pillow export <id>  Export a session as markdown (--json for JSON)
  pillow version      Print version information
  pillow help         Show this help`)
}

// =============================================================================
// TUI
// =============================================================================

func runTUI() {
	if err := config.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create config directory: %v\n", err)
		os.Exit(1)
	}

	settings, err := config.Load()
	if err != nil {
		// A corrupt config file degrades to defaults rather than blocking
		// startup; the env key override still applies.
		fmt.Fprintf(os.Stderr, "Warning: config load failed, using defaults: %v\n", err)
	}
	mgr := config.NewManager(settings)

	client := openrouter.NewClient(mgr.Current().APIKey)
	mgr.OnChange(func(s model.Settings) {
		client.SetAPIKey(s.APIKey)
	})
	if path, err := config.Path(); err == nil {
		// Best effort: config edits apply on next generation without restart.
		_ = mgr.Watch(path)
	}

	st := store.New()
	db, snap := openPersistence(st, mgr.Current())

	ctrl := chat.NewController(st, client, mgr.Current)

	p := tea.NewProgram(ui.New(st, ctrl, mgr), tea.WithAltScreen())
	ctrl.SetNotify(func(ev chat.Event) {
		p.Send(ui.ChatEventMsg{Event: ev})
	})
	if snap != nil {
		snap.Start()
	}

	_, runErr := p.Run()

	ctrl.Cancel()
	if snap != nil {
		snap.Stop()
	}
	if db != nil {
		db.Close()
	}
	mgr.StopWatch()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// openPersistence opens the session database, seeds the store from it, and
// prepares the snapshotter. History loading and auto-save honor the user's
// privacy toggles. Returns nils when persistence is unavailable or disabled.
func openPersistence(st *store.Store, settings model.Settings) (*storage.DB, *storage.Snapshotter) {
	if !settings.EnableChatHistory && !settings.AutoSaveChats {
		return nil, nil
	}

	path, err := storage.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: chat history unavailable: %v\n", err)
		return nil, nil
	}
	db, err := storage.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: chat history unavailable: %v\n", err)
		return nil, nil
	}

	if settings.EnableChatHistory {
		if snap, err := db.Load(); err == nil {
			st.Replace(snap.Sessions, snap.ActiveSessionID)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: could not load chat history: %v\n", err)
		}
	}

	if !settings.AutoSaveChats {
		return db, nil
	}
	return db, storage.NewSnapshotter(db, st)
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func openDB() *storage.DB {
	path, err := storage.DefaultPath()
	if err == nil {
		var db *storage.DB
		if db, err = storage.Open(path); err == nil {
			return db
		}
	}
	fmt.Fprintf(os.Stderr, "Error: cannot open chat history: %v\n", err)
	os.Exit(1)
	return nil
}

func handleSessions() {
	db := openDB()
	defer db.Close()

	snap, err := db.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(snap.Sessions) == 0 {
		fmt.Println("No saved sessions.")
		return
	}

	for _, s := range snap.Sessions {
		marker := " "
		if s.ID == snap.ActiveSessionID {
			marker = "*"
		}
		fmt.Printf("%s %s  %-40s  %3d messages  %s\n",
			marker, s.ID[:8], util.TruncateRunes(s.Title, 40), len(s.Messages),
			s.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func handleExport(args []string) {
	var id string
	asJSON := false
	for _, a := range args {
		if a == "--json" {
			asJSON = true
		} else if id == "" {
			id = a
		}
	}
	if id == "" {
		fmt.Fprintln(os.Stderr, "Usage: pillow export <session-id> [--json]")
		os.Exit(1)
	}

	db := openDB()
	defer db.Close()

	sess, err := resolveSession(db, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		data, err := storage.ExportJSON(sess)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	fmt.Print(storage.ExportMarkdown(sess))
}

// resolveSession accepts a full session ID or an unambiguous prefix.
func resolveSession(db *storage.DB, id string) (*model.ChatSession, error) {
	if sess, err := db.LoadSession(id); err == nil {
		return sess, nil
	}

	snap, err := db.Load()
	if err != nil {
		return nil, err
	}
	var match *model.ChatSession
	for _, s := range snap.Sessions {
		if strings.HasPrefix(s.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("session prefix %q is ambiguous", id)
			}
			match = s
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no session matching %q", id)
	}
	return match, nil
}
