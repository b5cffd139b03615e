package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/config"
	"github.com/tomz197/snackdrop/internal/loop/server"
	"github.com/tomz197/snackdrop/internal/web"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()
	config.SetupLogging(cfg.LogLevel, os.Stderr)
	gin.SetMode(gin.ReleaseMode)

	hub, err := server.Open(context.Background(), cfg, "snackdrop-web")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open game data")
	}
	defer hub.Close()

	srv, err := web.New(hub, cfg.SSHDisplayHost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create web server")
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.WebHost, cfg.WebPort),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting web server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("web server error")
		}
	}()

	<-done
	log.Info().Msg("shutting down web server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
