package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/config"
	"github.com/tomz197/snackdrop/internal/draw"
	"github.com/tomz197/snackdrop/internal/loop/client"
	"github.com/tomz197/snackdrop/internal/loop/server"
)

// Shared by all SSH clients
var gameServer *server.Server

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()
	config.SetupLogging(cfg.LogLevel, os.Stderr)

	workingDir, workErr := os.Getwd()
	if workErr != nil {
		log.Warn().Err(workErr).Msg("failed to get working directory")
	}
	log.Info().
		Str("host", cfg.SSHHost).
		Str("port", cfg.SSHPort).
		Str("host_key", cfg.HostKeyPath).
		Str("working_dir", workingDir).
		Msg("ssh config")

	srv, err := server.Open(context.Background(), cfg, "snackdrop-ssh")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start game server")
	}
	gameServer = srv
	log.Info().Int("variants", len(srv.Themes())).Msg("game server started")

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.SSHHost, cfg.SSHPort)),
		wish.WithMiddleware(
			gameMiddleware,
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.HostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ssh server")
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Str("addr", net.JoinHostPort(cfg.SSHHost, cfg.SSHPort)).Msg("starting ssh server")
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ssh server error")
		}
	}()

	<-done
	log.Info().Msg("shutting down server")

	// Notify players and wait for them to disconnect
	log.Info().Int("players", gameServer.Players()).Msg("notifying connected players about shutdown")
	gameServer.Shutdown(15 * time.Second)
	if err := gameServer.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close game server")
	}
	log.Info().Msg("game server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("shutdown error")
	}
}

// gameMiddleware handles SSH sessions and runs the game client. The SSH user
// name picks the variant, e.g. ssh sushi@host.
func gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		log.Info().
			Str("user", sess.User()).
			Str("term", pty.Term).
			Int("width", pty.Window.Width).
			Int("height", pty.Window.Height).
			Msg("new game session")

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
			Variant:      sess.User(),
			ColorProfile: termenv.TrueColor,
		}

		c := client.NewClient(sess.Context(), gameServer, reader, sess, clientOpts)
		if err := c.Run(); err != nil {
			log.Error().Err(err).Str("user", sess.User()).Msg("game error")
		}

		log.Info().Str("user", sess.User()).Msg("session ended")
		next(sess)
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
