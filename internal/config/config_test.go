package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SSH_PORT", "DATABASE_URL", "SNACKDROP_SEED", "SNACKDROP_CLAMP_PADDLE", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg := Load()
	if cfg.SSHPort != "2222" || cfg.LogLevel != "info" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.DatabaseURL != "" || cfg.Seed != 0 || cfg.ClampPaddle {
		t.Fatalf("unexpected non-default values: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SSH_PORT", "2323")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("SNACKDROP_SEED", " 42 ")
	t.Setenv("SNACKDROP_CLAMP_PADDLE", "true")

	cfg := Load()
	if cfg.SSHPort != "2323" || cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Seed != 42 || !cfg.ClampPaddle {
		t.Fatalf("seed = %d clamp = %v", cfg.Seed, cfg.ClampPaddle)
	}
}

func TestEnvParsersFallBack(t *testing.T) {
	t.Setenv("SNACKDROP_TEST_INT", "abc")
	t.Setenv("SNACKDROP_TEST_BOOL", "maybe")
	if got := GetEnvInt64("SNACKDROP_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt64 = %d, want 7", got)
	}
	if got := GetEnvBool("SNACKDROP_TEST_BOOL", true); !got {
		t.Fatal("GetEnvBool should fall back to true")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SNACKDROP_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SNACKDROP_TEST_DOTENV", "")
	os.Unsetenv("SNACKDROP_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SNACKDROP_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("SNACKDROP_TEST_DOTENV = %q", got)
	}
}
