package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SWISSKNIFE_CONFIG", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 0 {
		t.Fatalf("expected no timeout, got %s", cfg.Timeout)
	}
	if cfg.ChunkSize != DefaultChunkSize || cfg.Level != DefaultLevel || cfg.Concurrency != DefaultConcurrency {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Remote || cfg.Retries != DefaultRemoteRetries {
		t.Fatalf("unexpected remote defaults: %+v", cfg)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := isolate(t)
	base := filepath.Join(dir, "swissknife")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "timeout: 90s\nhash:\n  chunk_size: 4096\ncompress:\n  level: high\nbatch:\n  concurrency: 2\n"
	if err := os.WriteFile(filepath.Join(base, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SWISSKNIFE_BATCH_CONCURRENCY", "8")
	t.Setenv("SWISSKNIFE_OUTPUT_FORMAT", "json")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %s", cfg.Timeout)
	}
	if cfg.ChunkSize != 4096 || cfg.Level != "high" {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	if cfg.Concurrency != 8 {
		t.Fatalf("env should override file, got %d", cfg.Concurrency)
	}
	if !cfg.JSON {
		t.Fatalf("output_format=json should enable json")
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv("SWISSKNIFE_COMPRESS_LEVEL", "low")
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("level", "", "")
	cmd.Flags().Int("chunk-size", 0, "")
	cmd.Flags().Bool("json", false, "")
	if err := cmd.Flags().Parse([]string{"--level", "high", "--chunk-size", "1024", "--json"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Level != "high" || cfg.ChunkSize != 1024 || !cfg.JSON {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestLoadTimeoutSeconds(t *testing.T) {
	isolate(t)
	t.Setenv("SWISSKNIFE_TIMEOUT_SECONDS", "5")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.Timeout)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("SWISSKNIFE_TIMEOUT", "soon")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}
