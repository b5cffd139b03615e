package config

import (
	"os"
	"path/filepath"
)

// Config holds process-level settings shared by the binaries.
type Config struct {
	SSHHost        string
	SSHPort        string
	HostKeyPath    string
	WebHost        string
	WebPort        string
	SSHDisplayHost string

	DatabaseURL string // Postgres store when set
	StorePath   string // YAML file store when set and DatabaseURL is empty
	NATSURL     string // NATS bus when set, in-process bus otherwise
	ThemesPath  string // Optional override for the embedded themes

	Seed        int64 // 0 seeds from the wall clock
	ClampPaddle bool
	LogLevel    string
	LogFile     string // Log destination for the local game, which owns the terminal
}

// Default returns a Config with the built-in defaults.
func Default() Config {
	return Config{
		SSHHost:        "::",
		SSHPort:        "2222",
		HostKeyPath:    "/app/keys/host_key",
		WebHost:        "0.0.0.0",
		WebPort:        "8080",
		SSHDisplayHost: "your-server.com",
		LogLevel:       "info",
	}
}

// Load reads the configuration from the environment on top of Default.
func Load() Config {
	cfg := Default()
	cfg.SSHHost = GetEnv("SSH_HOST", cfg.SSHHost)
	cfg.SSHPort = GetEnv("SSH_PORT", cfg.SSHPort)
	cfg.HostKeyPath = GetEnv("SSH_HOST_KEY", cfg.HostKeyPath)
	cfg.WebHost = GetEnv("WEB_HOST", cfg.WebHost)
	cfg.WebPort = GetEnv("WEB_PORT", cfg.WebPort)
	cfg.SSHDisplayHost = GetEnv("SSH_DISPLAY_HOST", cfg.SSHDisplayHost)
	cfg.DatabaseURL = GetEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.StorePath = GetEnv("SNACKDROP_STORE_PATH", cfg.StorePath)
	cfg.NATSURL = GetEnv("NATS_URL", cfg.NATSURL)
	cfg.ThemesPath = GetEnv("SNACKDROP_THEMES", cfg.ThemesPath)
	cfg.Seed = GetEnvInt64("SNACKDROP_SEED", cfg.Seed)
	cfg.ClampPaddle = GetEnvBool("SNACKDROP_CLAMP_PADDLE", cfg.ClampPaddle)
	cfg.LogLevel = GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = GetEnv("SNACKDROP_LOG_FILE", cfg.LogFile)
	return cfg
}

// DefaultStorePath is where the local single-player binary keeps its scores.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snackdrop.yaml"
	}
	return filepath.Join(home, ".snackdrop.yaml")
}
