package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/bus"
	appconfig "github.com/tomz197/snackdrop/internal/config"
	"github.com/tomz197/snackdrop/internal/store"
)

// Open builds a hub from process configuration: themes, the store chosen by
// DATABASE_URL or SNACKDROP_STORE_PATH, and a NATS bus when NATS_URL is set.
// name identifies the process on the bus.
func Open(ctx context.Context, cfg appconfig.Config, name string) (*Server, error) {
	themes, err := appconfig.LoadThemes(cfg.ThemesPath)
	if err != nil {
		return nil, err
	}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var b bus.Bus
	if cfg.NATSURL != "" {
		nb, err := bus.ConnectNATS(cfg.NATSURL, name)
		if err != nil {
			st.Close()
			return nil, err
		}
		log.Info().Str("url", cfg.NATSURL).Msg("using NATS event bus")
		b = nb
	} else {
		b = bus.NewLocal()
	}

	logger := log.Logger
	s, err := New(Deps{
		Themes:      themes,
		Store:       st,
		Bus:         b,
		Seed:        cfg.Seed,
		ClampPaddle: cfg.ClampPaddle,
		Logger:      &logger,
	})
	if err != nil {
		b.Close()
		st.Close()
		return nil, err
	}
	s.closers = []func() error{st.Close, b.Close}
	return s, nil
}

// OpenStore picks the store backend: Postgres (migrated on open) when a
// database URL is configured, a YAML file when a path is, memory otherwise.
func OpenStore(ctx context.Context, cfg appconfig.Config) (store.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		st, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("using postgres store")
		return st, nil
	case cfg.StorePath != "":
		st, err := store.OpenFile(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		log.Info().Str("path", cfg.StorePath).Msg("using file store")
		return st, nil
	default:
		log.Warn().Msg("no DATABASE_URL or SNACKDROP_STORE_PATH; scores are kept in memory")
		return store.NewMemory(), nil
	}
}
