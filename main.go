// studymate TUI - A terminal chat client for the StudyMate tutoring backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/studymate-tui/internal/api"
	"github.com/jeranaias/studymate-tui/internal/bus"
	"github.com/jeranaias/studymate-tui/internal/config"
	"github.com/jeranaias/studymate-tui/internal/controller"
	"github.com/jeranaias/studymate-tui/internal/logger"
	"github.com/jeranaias/studymate-tui/internal/storage"
	"github.com/jeranaias/studymate-tui/internal/store"
	"github.com/jeranaias/studymate-tui/internal/ui/chat"
	"github.com/jeranaias/studymate-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	serverURL := flag.String("server", "", "backend base URL (overrides config)")
	debug := flag.Bool("debug", false, "mirror logs to stderr")
	noRAG := flag.Bool("no-rag", false, "start with document retrieval off")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("studymate %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *debug {
		cfg.Debug = true
	}

	log := logger.New(cfg.LogFile, cfg.Debug)
	defer log.Sync()

	log.Info("starting studymate",
		zap.String("version", Version),
		zap.String("server", cfg.ServerURL))

	client := api.NewClient(&api.ClientConfig{
		BaseURL:       cfg.ServerURL,
		ChatTimeout:   cfg.ChatTimeout(),
		UploadTimeout: cfg.UploadTimeout(),
		HealthTimeout: cfg.HealthTimeout(),
	}, log)

	eventBus := bus.New(log)
	defer eventBus.Close()

	state := store.New()
	if *noRAG {
		state.RagEnabled.Set(false)
	}

	ctrl := controller.New(client, eventBus, state, log)
	if err := ctrl.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	transcripts, err := storage.NewTranscriptStore()
	if err != nil {
		// The chat view degrades gracefully without persistence.
		log.Warn("transcript store unavailable", zap.Error(err))
		transcripts = nil
	}

	view := chat.New(chat.Deps{
		Controller:  ctrl,
		Store:       state,
		Client:      client,
		Transcripts: transcripts,
		Theme:       styles.New(),
		Logger:      log,
	})

	p := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error("tui crashed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
