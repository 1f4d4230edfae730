// Package config_test tests configuration loading and validation.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolkov/genpost/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "telegram:\n  token: \"123:abc\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Log.Level != config.DefaultLogLevel {
		t.Errorf("log level = %q, want default %q", cfg.Log.Level, config.DefaultLogLevel)
	}
	if cfg.Gen.Timeout != config.DefaultGenTimeout {
		t.Errorf("gen timeout = %v, want default %v", cfg.Gen.Timeout, config.DefaultGenTimeout)
	}
	if cfg.Scheduler.FirstFire != config.FirstFireImmediate {
		t.Errorf("first_fire = %q, want %q", cfg.Scheduler.FirstFire, config.FirstFireImmediate)
	}
	if cfg.Messages.InvalidInterval == "" {
		t.Error("default messages not applied")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	content := `
telegram:
  token: "123:abc"
log:
  level: debug
gen:
  model: test-model
  timeout: 30s
scheduler:
  first_fire: delayed
`
	cfg, err := config.LoadConfig(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Gen.Model != "test-model" {
		t.Errorf("gen model = %q, want test-model", cfg.Gen.Model)
	}
	if cfg.Gen.Timeout != 30*time.Second {
		t.Errorf("gen timeout = %v, want 30s", cfg.Gen.Timeout)
	}
	if cfg.Scheduler.FirstFire != config.FirstFireDelayed {
		t.Errorf("first_fire = %q, want delayed", cfg.Scheduler.FirstFire)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing token", content: "log:\n  level: info\n"},
		{name: "bad log level", content: "telegram:\n  token: \"123:abc\"\nlog:\n  level: loud\n"},
		{name: "bad first_fire", content: "telegram:\n  token: \"123:abc\"\nscheduler:\n  first_fire: eventually\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := config.LoadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("LoadConfig() error = nil, want validation failure")
			}
		})
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123:abc")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q, want env value", cfg.Telegram.Token)
	}
}
