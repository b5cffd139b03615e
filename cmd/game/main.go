package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/tomz197/snackdrop/internal/config"
	"github.com/tomz197/snackdrop/internal/loop"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()

	// The game owns the terminal; logs go to a file when one is given.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	config.SetupLogging(cfg.LogLevel, logOut)

	opts := loop.Options{ColorProfile: termenv.EnvColorProfile()}
	if len(os.Args) > 1 {
		opts.Variant = os.Args[1]
	}
	if u, err := user.Current(); err == nil {
		opts.Username = u.Username
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}

	err = loop.Run(ctx, cfg, bufio.NewReader(os.Stdin), os.Stdout, opts)
	_ = term.Restore(fd, oldState)
	if err != nil {
		log.Error().Err(err).Msg("game error")
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}
