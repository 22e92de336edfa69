package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomz197/moles/internal/config"
	"github.com/tomz197/moles/internal/kvstore"
	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/server"
	"github.com/tomz197/moles/internal/web"
)

const (
	defaultHost     = "0.0.0.0"
	defaultPort     = "8080"
	defaultDBPath   = "moles.db"
	defaultReload   = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// The standalone web server has no live sessions of its own; it serves the
// ranking another process records, re-reading it on an interval.
func main() {
	logger := logging.New("web")
	if err := config.Load(); err != nil {
		logger.Fatal("load config", "err", err)
	}

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	dbPath := config.GetEnv("MOLES_DB", defaultDBPath)
	reload := config.GetEnvDuration("MOLES_RELOAD", defaultReload)

	store, err := kvstore.Open(dbPath)
	if err != nil {
		logger.Fatal("open database", "path", dbPath, "err", err)
	}
	defer store.Close()

	board := leaderboard.New(store)
	if err := board.Load(); err != nil {
		logger.Warn("load ranking", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lobby := server.NewServer(server.Options{Board: board, Logger: logger})
	go lobby.Run(ctx)
	go func() {
		ticker := time.NewTicker(reload)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lobby.ReloadLeaderboard(); err != nil {
					logger.Warn("reload ranking", "err", err)
				}
			}
		}
	}()

	ws := web.NewServer(lobby, web.Options{
		SSHHost: config.GetEnv("SSH_DISPLAY_HOST", "your-server.com"),
		SSHPort: config.GetEnv("SSH_DISPLAY_PORT", "22"),
		Logger:  logger,
	})
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting web server", "addr", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
