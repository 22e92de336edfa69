package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"golang.org/x/term"

	"github.com/tomz197/moles/internal/config"
	"github.com/tomz197/moles/internal/kvstore"
	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/client"
	"github.com/tomz197/moles/internal/loop/server"
)

const defaultDBPath = "moles.db"

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the game; only errors go to a log file.
	logger := logging.Discard()
	if path := config.GetEnv("MOLES_LOG", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = logging.NewWithWriter(f, "game")
	}

	store, err := kvstore.Open(config.GetEnv("MOLES_DB", defaultDBPath))
	if err != nil {
		logger.Warn("ranking will not persist", "err", err)
		store = kvstore.NewMemory()
	}
	defer store.Close()

	board := leaderboard.New(store)
	if err := board.Load(); err != nil {
		logger.Warn("load ranking", "err", err)
	}

	gs := server.NewServer(server.Options{Board: board, Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gs.Run(ctx)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	c := client.NewClient(gs, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Username: username,
		Logger:   logger,
	})
	runErr := c.Run()
	gs.Shutdown(time.Second)

	if runErr != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", runErr)
		os.Exit(1)
	}
}
