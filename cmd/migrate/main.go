package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tomz197/snackdrop/internal/config"
	"github.com/tomz197/snackdrop/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()
	config.SetupLogging(cfg.LogLevel, os.Stderr)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("migrations applied")
}
