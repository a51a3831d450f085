package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:        "info",
			DefaultProvider: "ollama",
		},
		Telegram: TelegramConfig{
			ParseMode: "Markdown",
		},
		Chat: ChatConfig{
			TargetChatID: 0,
		},
		Digest: DigestConfig{
			Enabled:    true,
			FireHour:   9,
			FireMinute: 0,
		},
		Providers: map[string]ProviderConfig{
			"ollama": {
				Enabled:      true,
				APIBase:      "http://localhost:11434",
				DefaultModel: "llama3.1:8b",
			},
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  "~/.gatewarden/audit.db",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Port:     9090,
			Endpoint: "/metrics",
		},
	}
}
