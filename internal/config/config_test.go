package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GW_TEST_TOKEN", "secret123")
	t.Setenv("GW_TEST_EMPTY", "")

	cases := []struct {
		in   string
		want string
	}{
		{"${GW_TEST_TOKEN}", "secret123"},
		{"prefix-${GW_TEST_TOKEN}-suffix", "prefix-secret123-suffix"},
		{"${GW_TEST_MISSING:-fallback}", "fallback"},
		{"${GW_TEST_EMPTY:-fallback}", "fallback"},
		{"${GW_TEST_TOKEN:-fallback}", "secret123"},
		{"${GW_TEST_MISSING}", "${GW_TEST_MISSING}"},
		{"no vars here", "no vars here"},
	}
	for _, tc := range cases {
		if got := ExpandEnvVars(tc.in); got != tc.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Defaults()
	cfg.Telegram.Token = "123:abc"
	cfg.Chat.TargetChatID = -100123456
	cfg.Digest.FireHour = 18
	cfg.Digest.FireMinute = 30

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Telegram.Token != "123:abc" {
		t.Errorf("Token = %q", loaded.Telegram.Token)
	}
	if loaded.Chat.TargetChatID != -100123456 {
		t.Errorf("TargetChatID = %d", loaded.Chat.TargetChatID)
	}
	if loaded.Digest.FireHour != 18 || loaded.Digest.FireMinute != 30 {
		t.Errorf("fire time = %d:%d, want 18:30", loaded.Digest.FireHour, loaded.Digest.FireMinute)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("GW_TEST_BOT_TOKEN", "tok-from-env")
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"telegram": {"token": "${GW_TEST_BOT_TOKEN}"}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "tok-from-env" {
		t.Errorf("Token = %q, want tok-from-env", cfg.Telegram.Token)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.General.LogLevel = "loud" }},
		{"fire hour out of range", func(c *Config) { c.Digest.FireHour = 24 }},
		{"fire minute out of range", func(c *Config) { c.Digest.FireMinute = -1 }},
		{"unknown failover provider", func(c *Config) { c.General.FailoverChain = []string{"nope"} }},
		{"unknown default provider", func(c *Config) { c.General.DefaultProvider = "nope" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
		{"audit without path", func(c *Config) { c.Audit.DBPath = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAccessorGetSet(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "digest.fireHour", "21"); err != nil {
		t.Fatalf("SetByPath: %v", err)
	}
	if cfg.Digest.FireHour != 21 {
		t.Errorf("FireHour = %d, want 21", cfg.Digest.FireHour)
	}

	val, err := GetByPath(cfg, "digest.fireHour")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if n, ok := val.(float64); !ok || n != 21 {
		t.Errorf("GetByPath = %v (%T), want 21", val, val)
	}

	if err := SetByPath(cfg, "digest.enabled", "false"); err != nil {
		t.Fatalf("SetByPath bool: %v", err)
	}
	if cfg.Digest.Enabled {
		t.Error("Enabled should be false")
	}

	if _, err := GetByPath(cfg, "digest.unknownKey"); err == nil {
		t.Error("unknown key should error")
	}
}

func TestSanitizeMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "123456789:very-secret-token"
	cfg.Providers["openai"] = ProviderConfig{Enabled: true, APIKey: "sk-abcdefghijklmnop"}

	clean := Sanitize(cfg)
	if clean.Telegram.Token == cfg.Telegram.Token {
		t.Error("telegram token not masked")
	}
	if clean.Providers["openai"].APIKey == "sk-abcdefghijklmnop" {
		t.Error("provider API key not masked")
	}
	// Original untouched.
	if cfg.Telegram.Token != "123456789:very-secret-token" {
		t.Error("Sanitize mutated the original config")
	}
}
