// Package loop runs a single local player in the current terminal.
package loop

import (
	"bufio"
	"context"
	"io"

	"github.com/muesli/termenv"

	"github.com/tomz197/snackdrop/internal/config"
	"github.com/tomz197/snackdrop/internal/draw"
	"github.com/tomz197/snackdrop/internal/loop/client"
	"github.com/tomz197/snackdrop/internal/loop/server"
)

// Options configures a local run.
type Options struct {
	Username     string
	Variant      string
	ColorProfile termenv.Profile
	TermSizeFunc draw.TermSizeFunc // Defaults to the size of stdout
}

// Run opens a hub from cfg and plays on r and w until the player quits or
// ctx is cancelled. A file store at the default path is used when cfg names
// no store.
func Run(ctx context.Context, cfg config.Config, r *bufio.Reader, w io.Writer, opts Options) error {
	if cfg.DatabaseURL == "" && cfg.StorePath == "" {
		cfg.StorePath = config.DefaultStorePath()
	}

	srv, err := server.Open(ctx, cfg, "snackdrop-game")
	if err != nil {
		return err
	}
	defer srv.Close()

	c := client.NewClient(ctx, srv, r, w, client.ClientOptions{
		TermSizeFunc: opts.TermSizeFunc,
		Username:     opts.Username,
		Variant:      opts.Variant,
		ColorProfile: opts.ColorProfile,
	})
	return c.Run()
}
