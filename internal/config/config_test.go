package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func minimalConfig(t *testing.T) string {
	t.Helper()

	return fmt.Sprintf(`
telegram:
  token: "123:abc"
storage:
  path: %q
`, filepath.Join(t.TempDir(), "users.json"))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig(t)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Telegram.PollTimeout != 30 {
		t.Errorf("expected poll_timeout 30, got %d", cfg.Telegram.PollTimeout)
	}
	if cfg.Generator.Provider != "template" {
		t.Errorf("expected template provider, got %q", cfg.Generator.Provider)
	}
	if cfg.Generator.CacheSize != 128 {
		t.Errorf("expected cache_size 128, got %d", cfg.Generator.CacheSize)
	}
	if cfg.Quota.Limit != 5 {
		t.Errorf("expected quota limit 5, got %d", cfg.Quota.Limit)
	}
	if cfg.Quota.Window != "720h" {
		t.Errorf("expected quota window 720h, got %q", cfg.Quota.Window)
	}
	if cfg.Quota.ChargeOnFailure {
		t.Error("expected charge_on_failure to default to false")
	}
	if cfg.Storage.Type != "jsonfile" {
		t.Errorf("expected jsonfile storage, got %q", cfg.Storage.Type)
	}
	if cfg.Dialog.SessionIdleTimeout != "30m" {
		t.Errorf("expected idle timeout 30m, got %q", cfg.Dialog.SessionIdleTimeout)
	}
	if cfg.Admin.Enabled {
		t.Error("expected admin API disabled by default")
	}
	if cfg.Server.MetricsPort != 9090 {
		t.Errorf("expected metrics port 9090, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadOverrides(t *testing.T) {
	content := fmt.Sprintf(`
telegram:
  token: "123:abc"
  poll_timeout: 10
generator:
  provider: openai
  api_key: "sk-test"
  model: "gpt-4o"
quota:
  limit: 3
  charge_on_failure: true
storage:
  path: %q
admin:
  user_id: 6342038136
logging:
  level: debug
  format: text
`, filepath.Join(t.TempDir(), "users.json"))

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Telegram.PollTimeout != 10 {
		t.Errorf("expected poll_timeout 10, got %d", cfg.Telegram.PollTimeout)
	}
	if cfg.Generator.Provider != "openai" || cfg.Generator.Model != "gpt-4o" {
		t.Errorf("unexpected generator config: %+v", cfg.Generator)
	}
	if cfg.Quota.Limit != 3 || !cfg.Quota.ChargeOnFailure {
		t.Errorf("unexpected quota config: %+v", cfg.Quota)
	}
	if cfg.Admin.UserID != 6342038136 {
		t.Errorf("expected admin user id 6342038136, got %d", cfg.Admin.UserID)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("DARSBOT_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("DARSBOT_STORAGE_PATH", filepath.Join(t.TempDir(), "users.json"))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("expected token from environment, got %q", cfg.Telegram.Token)
	}
}

func TestValidation(t *testing.T) {
	storagePath := filepath.Join(t.TempDir(), "users.json")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing token",
			content: fmt.Sprintf("storage:\n  path: %q\n", storagePath),
			wantErr: "telegram token is required",
		},
		{
			name: "openai without api key",
			content: fmt.Sprintf(`
telegram:
  token: "123:abc"
generator:
  provider: openai
storage:
  path: %q
`, storagePath),
			wantErr: "api_key is required",
		},
		{
			name: "unknown provider",
			content: fmt.Sprintf(`
telegram:
  token: "123:abc"
generator:
  provider: markov
storage:
  path: %q
`, storagePath),
			wantErr: "unknown generator provider",
		},
		{
			name: "unknown storage type",
			content: `
telegram:
  token: "123:abc"
storage:
  type: s3
`,
			wantErr: "unknown storage type",
		},
		{
			name: "nonpositive quota limit",
			content: fmt.Sprintf(`
telegram:
  token: "123:abc"
quota:
  limit: 0
storage:
  path: %q
`, storagePath),
			wantErr: "quota limit must be positive",
		},
		{
			name: "admin enabled without token",
			content: fmt.Sprintf(`
telegram:
  token: "123:abc"
storage:
  path: %q
admin:
  enabled: true
`, storagePath),
			wantErr: "admin token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
