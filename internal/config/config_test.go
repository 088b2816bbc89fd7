package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://api.example.com
recognition:
  provider: unsupported
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.API.Round != "pre-screening" {
		t.Errorf("expected default round pre-screening, got %s", cfg.API.Round)
	}
	if cfg.Interview.CountdownSeconds != 3 {
		t.Errorf("expected default countdown 3, got %d", cfg.Interview.CountdownSeconds)
	}
	if cfg.Interview.AnswerSeconds != 5 {
		t.Errorf("expected default answer duration 5, got %d", cfg.Interview.AnswerSeconds)
	}
	if cfg.Capture.ChunkIntervalMs != 1000 {
		t.Errorf("expected default chunk interval 1000, got %d", cfg.Capture.ChunkIntervalMs)
	}
	if cfg.Capture.VideoBitsPerSecond != 2500000 {
		t.Errorf("expected default bitrate 2500000, got %d", cfg.Capture.VideoBitsPerSecond)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
recognition:
  provider: unsupported
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for missing api.base_url")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://api.example.com
recognition:
  provider: telepathy
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown recognition provider")
	}
}

func TestStreamProviderRequiresServerURL(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://api.example.com
recognition:
  provider: stream
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for stream provider without server_url")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://api.example.com
recognition:
  provider: unsupported
`)

	t.Setenv("RECORDER_API_BASE_URL", "http://override.example.com")
	t.Setenv("RECORDER_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://override.example.com" {
		t.Errorf("expected env override for base_url, got %s", cfg.API.BaseURL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected env override for redis addr, got %s", cfg.Redis.Addr)
	}
}
