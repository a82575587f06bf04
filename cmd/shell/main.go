package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"necroshell/internal/config"
	"necroshell/internal/logger"
	"necroshell/internal/storage"
)

func main() {
	cfg := config.Load()

	// Logs go to a file so they never bleed into the TUI.
	logOut := io.Writer(io.Discard)
	if f, err := os.OpenFile("necroshell.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		logOut = f
		defer f.Close()
	}
	log := logger.SetupWithWriter(cfg, logOut)

	// Redis is optional: without it the shell still runs, but save,
	// load and the journal are disabled.
	var store storage.Storage
	rs := storage.NewRedisStorage(cfg.RedisURL, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rs.WaitForConnection(ctx); err != nil {
		log.Warn("Redis unavailable; saves disabled", "error", err)
		_ = rs.Close()
	} else {
		store = rs
	}
	cancel()

	s, err := newSession(store, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewShellUI(s),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if store != nil {
		_ = store.Close()
	}
}
