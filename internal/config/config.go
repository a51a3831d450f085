package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for Gatewarden.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Telegram  TelegramConfig            `json:"telegram"`
	Chat      ChatConfig                `json:"chat"`
	Digest    DigestConfig              `json:"digest"`
	Lexicon   LexiconConfig             `json:"lexicon"`
	Providers map[string]ProviderConfig `json:"providers"`
	Audit     AuditConfig               `json:"audit"`
	Metrics   MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel        string   `json:"logLevel"`
	LogFile         string   `json:"logFile,omitempty"`
	DefaultProvider string   `json:"defaultProvider"`
	FailoverChain   []string `json:"failoverChain,omitempty"` // provider failover order
}

type TelegramConfig struct {
	Token     string `json:"token"`
	ParseMode string `json:"parseMode"`
}

// ChatConfig names the single group chat the gatekeeper serves.
type ChatConfig struct {
	TargetChatID int64 `json:"targetChatId"`
}

// DigestConfig controls the once-per-day digest post.
type DigestConfig struct {
	Enabled    bool `json:"enabled"`
	FireHour   int  `json:"fireHour"`
	FireMinute int  `json:"fireMinute"`
}

// LexiconConfig points at an optional YAML pattern file and allows
// inline additions merged on top of the built-in pattern sets.
type LexiconConfig struct {
	File     string   `json:"file,omitempty"`
	Spam     []string `json:"spam,omitempty"`
	Question []string `json:"question,omitempty"`
	Greeting []string `json:"greeting,omitempty"`
}

type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Port     int    `json:"port"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.gatewarden).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gatewarden"
	}
	return filepath.Join(home, ".gatewarden")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Lexicon.File = ExpandPath(cfg.Lexicon.File)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Digest.FireHour < 0 || cfg.Digest.FireHour > 23 {
		errs = append(errs, "digest.fireHour must be between 0 and 23")
	}
	if cfg.Digest.FireMinute < 0 || cfg.Digest.FireMinute > 59 {
		errs = append(errs, "digest.fireMinute must be between 0 and 59")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			errs = append(errs, "metrics.port must be between 1 and 65535")
		}
	}

	if cfg.Audit.Enabled && cfg.Audit.DBPath == "" {
		errs = append(errs, "audit.dbPath is required when audit is enabled")
	}

	// Validate failover chain references exist in providers.
	for _, provName := range cfg.General.FailoverChain {
		if _, ok := cfg.Providers[provName]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown provider: %s", provName))
		}
	}

	if cfg.General.DefaultProvider != "" {
		if _, ok := cfg.Providers[cfg.General.DefaultProvider]; !ok {
			errs = append(errs, fmt.Sprintf("general.defaultProvider references unknown provider: %s", cfg.General.DefaultProvider))
		}
	}

	// Providers in API mode need a base URL unless a default exists (ollama).
	for name, pc := range cfg.Providers {
		if pc.Enabled && pc.APIBase == "" && name != "ollama" && name != "openai" {
			errs = append(errs, fmt.Sprintf("providers.%s: apiBase is required", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
