// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
  webhook_secret: "hunter2"

database:
  path: "./test.db"

telegram:
  token: "123456:test-token"

admin:
  group_id: -1001234567890
  message_topic_id: 2
  application_topic_id: 3

limits:
  max_file_size: 10485760
  draft_ttl: "12h"

dedupe:
  ttl: "5m"
  max_size: 500

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Server.WebhookSecret != "hunter2" {
		t.Errorf("Server.WebhookSecret = %q, want %q", cfg.Server.WebhookSecret, "hunter2")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123456:test-token")
	}
	if cfg.Admin.GroupID != -1001234567890 {
		t.Errorf("Admin.GroupID = %d, want %d", cfg.Admin.GroupID, int64(-1001234567890))
	}
	if cfg.Admin.MessageTopicID != 2 {
		t.Errorf("Admin.MessageTopicID = %d, want 2", cfg.Admin.MessageTopicID)
	}
	if cfg.Limits.MaxFileSize != 10485760 {
		t.Errorf("Limits.MaxFileSize = %d, want 10485760", cfg.Limits.MaxFileSize)
	}
	if cfg.Limits.DraftTTL != 12*time.Hour {
		t.Errorf("Limits.DraftTTL = %v, want %v", cfg.Limits.DraftTTL, 12*time.Hour)
	}
	if cfg.Dedupe.TTL != 5*time.Minute {
		t.Errorf("Dedupe.TTL = %v, want %v", cfg.Dedupe.TTL, 5*time.Minute)
	}
	if cfg.Dedupe.MaxSize != 500 {
		t.Errorf("Dedupe.MaxSize = %d, want 500", cfg.Dedupe.MaxSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
telegram:
  token: "123456:test-token"
admin:
  group_id: -100
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limits.MaxFileSize != 30<<20 {
		t.Errorf("Limits.MaxFileSize = %d, want %d", cfg.Limits.MaxFileSize, 30<<20)
	}
	if cfg.Limits.DraftTTL != 24*time.Hour {
		t.Errorf("Limits.DraftTTL = %v, want %v", cfg.Limits.DraftTTL, 24*time.Hour)
	}
	if cfg.Dedupe.TTL != 10*time.Minute {
		t.Errorf("Dedupe.TTL = %v, want %v", cfg.Dedupe.TTL, 10*time.Minute)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123456:from-env")
	t.Setenv("TEST_WEBHOOK_SECRET", "secret-from-env")

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
  webhook_secret: "${TEST_WEBHOOK_SECRET}"
database:
  path: "./test.db"
telegram:
  token: "${TEST_BOT_TOKEN}"
admin:
  group_id: -100
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123456:from-env" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123456:from-env")
	}
	if cfg.Server.WebhookSecret != "secret-from-env" {
		t.Errorf("Server.WebhookSecret = %q, want %q", cfg.Server.WebhookSecret, "secret-from-env")
	}
}

func TestLoad_MissingAdminGroupIsFatal(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
telegram:
  token: "123456:test-token"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() succeeded, want admin.group_id validation error")
	}
	if !strings.Contains(err.Error(), "admin.group_id") {
		t.Errorf("error = %v, want mention of admin.group_id", err)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
admin:
  group_id: -100
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() succeeded, want telegram.token validation error")
	}
}

func TestLoad_TailscaleRequiresHostname(t *testing.T) {
	configPath := writeConfig(t, `
tailscale:
  enabled: true
database:
  path: "./test.db"
telegram:
  token: "123456:test-token"
admin:
  group_id: -100
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() succeeded, want tailscale.hostname validation error")
	}
	if !strings.Contains(err.Error(), "tailscale.hostname") {
		t.Errorf("error = %v, want mention of tailscale.hostname", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
telegram:
  token: "123456:test-token"
admin:
  group_id: -100
limits:
  draft_ttl: "one day"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() succeeded, want duration parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() succeeded, want file read error")
	}
}
