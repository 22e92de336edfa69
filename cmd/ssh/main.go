package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	wishlogging "github.com/charmbracelet/wish/logging"

	"github.com/tomz197/moles/internal/config"
	"github.com/tomz197/moles/internal/draw"
	"github.com/tomz197/moles/internal/kvstore"
	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/client"
	"github.com/tomz197/moles/internal/loop/server"
	"github.com/tomz197/moles/internal/web"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultDBPath      = "/app/data/moles.db"
	defaultWebHost     = "0.0.0.0"
	defaultWebPort     = "8080"
)

func main() {
	logger := logging.New("ssh")
	if err := config.Load(); err != nil {
		logger.Fatal("load config", "err", err)
	}

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	dbPath := config.GetEnv("MOLES_DB", defaultDBPath)
	logger.Info("ssh config", "host", host, "port", port, "hostKeyPath", hostKeyPath, "db", dbPath)

	store, err := kvstore.Open(dbPath)
	if err != nil {
		logger.Error("ranking will not persist", "path", dbPath, "err", err)
		store = kvstore.NewMemory()
	}
	defer store.Close()

	board := leaderboard.New(store)
	if err := board.Load(); err != nil {
		logger.Warn("load ranking", "err", err)
	}

	// Shared lobby server for every SSH session
	ctx, cancelServer := context.WithCancel(context.Background())
	defer cancelServer()
	gameServer := server.NewServer(server.Options{Board: board, Logger: logger.WithPrefix("lobby")})
	go gameServer.Run(ctx)
	logger.Info("game server started")

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			gameMiddleware(gameServer, logger),
			activeterm.Middleware(),
			wishlogging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	httpSrv := startWeb(gameServer, port, logger)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server")

	// Notify players and wait for them to disconnect. Rounds still running
	// are recorded before the clients leave.
	gameServer.Shutdown(15 * time.Second)
	cancelServer()
	logger.Info("game server stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("web shutdown", "err", err)
		}
	}
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// startWeb serves the lobby page and API in-process so live sessions show up.
// An empty WEB_PORT disables it.
func startWeb(lobby *server.Server, sshPort string, logger *log.Logger) *http.Server {
	port := config.GetEnv("WEB_PORT", defaultWebPort)
	if port == "" {
		return nil
	}
	ws := web.NewServer(lobby, web.Options{
		SSHHost: config.GetEnv("SSH_DISPLAY_HOST", "your-server.com"),
		SSHPort: config.GetEnv("SSH_DISPLAY_PORT", sshPort),
		Logger:  logger.WithPrefix("web"),
	})
	srv := &http.Server{
		Addr:              net.JoinHostPort(config.GetEnv("WEB_HOST", defaultWebHost), port),
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting web server", "addr", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server error", "err", err)
		}
	}()
	return srv
}

// gameMiddleware handles SSH sessions and runs the game client.
func gameMiddleware(gameServer *server.Server, logger *log.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			logger.Info("new game session", "user", sess.User(), "term", pty.Term,
				"width", pty.Window.Width, "height", pty.Window.Height)

			// Create a terminal size tracker that updates on window changes
			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

			// Listen for window size changes in a goroutine
			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			reader := bufio.NewReader(sess)
			clientOpts := client.ClientOptions{
				TermSizeFunc: sizeTracker.getSize,
				Username:     sess.User(),
				Logger:       logger.With("user", sess.User()),
			}

			// Create a new client connected to the shared game server
			c := client.NewClient(gameServer, reader, sess, clientOpts)
			if err := c.Run(); err != nil {
				logger.Error("game error", "user", sess.User(), "err", err)
			}

			logger.Info("session ended", "user", sess.User())
			next(sess)
		}
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
