package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatewarden/internal/audit"
	"gatewarden/internal/bus"
	"gatewarden/internal/channel"
	"gatewarden/internal/config"
	"gatewarden/internal/engine"
	"gatewarden/internal/lexicon"
	"gatewarden/internal/metrics"
	"gatewarden/internal/policy"
	"gatewarden/internal/provider"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "gatewarden",
		Short:   "Gatewarden: group chat gatekeeper bot",
		Long:    "Gatewarden moderates one Telegram group chat, replies to questions and mentions, and posts a daily digest.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.gatewarden/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())
	root.AddCommand(installDaemonCmd())
	root.AddCommand(uninstallDaemonCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}
			ctx := context.Background()
			factory := provider.NewFactory(cfg, logger)
			gen := factory.HealthyGenerator(ctx)
			if gen != nil {
				logger.Info("provider", "name", gen.Name(), "healthy", true)
			} else {
				logger.Info("provider", "healthy", false)
			}
			if cfg.Audit.Enabled {
				store, err := audit.NewSQLiteStore(cfg.Audit.DBPath, logger)
				if err != nil {
					logger.Warn("audit store unavailable", "err", err)
					return nil
				}
				defer store.Close()
				recs, err := store.RecentDecisions(ctx, 5)
				if err != nil {
					logger.Warn("audit query failed", "err", err)
					return nil
				}
				logger.Info("audit", "recent_decisions", len(recs))
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. digest.fireHour)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. digest.fireHour 9)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Start the gatekeeper (Telegram polling + decision engine)",
		Long:  "Connects to Telegram, watches the target group chat, and runs the moderation, response, and digest pipeline. Press Ctrl+C to stop.",
		RunE:  runGateway,
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is not set (run `gatewarden config set telegram.token <token>`)")
	}
	if cfg.Chat.TargetChatID == 0 {
		return fmt.Errorf("chat.targetChatId is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Message bus (closed during graceful shutdown below)
	messageBus := bus.New(100, logger)

	lex, err := lexicon.LoadFile(cfg.Lexicon.File, logger)
	if err != nil {
		return fmt.Errorf("lexicon: %w", err)
	}
	if err := lex.Extend(cfg.Lexicon.Spam, cfg.Lexicon.Question, cfg.Lexicon.Greeting); err != nil {
		return fmt.Errorf("lexicon inline patterns: %w", err)
	}

	provFactory := provider.NewFactory(cfg, logger)
	gen, err := provFactory.Default()
	if err != nil || gen == nil {
		logger.Warn("no default provider, falling back to ollama")
		gen = provider.NewOllama(provider.OllamaConfig{Logger: logger})
	}
	if err := gen.Healthy(ctx); err != nil {
		logger.Warn("generator unhealthy at startup", "provider", gen.Name(), "err", err)
	} else {
		logger.Info("generator healthy", "provider", gen.Name())
	}

	var recorder engine.Recorder
	if cfg.Audit.Enabled {
		store, err := audit.NewSQLiteStore(cfg.Audit.DBPath, logger)
		if err != nil {
			return fmt.Errorf("audit store: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	telegramCh := channel.NewTelegram(channel.TelegramConfig{
		Token:     cfg.Telegram.Token,
		ParseMode: cfg.Telegram.ParseMode,
		Logger:    logger,
	})
	if err := telegramCh.Connect(); err != nil {
		return err
	}

	var scheduler *engine.DigestScheduler
	if cfg.Digest.Enabled {
		scheduler = engine.NewDigestScheduler(engine.SchedulerConfig{
			Transport:  telegramCh,
			Generator:  gen,
			Recorder:   recorder,
			Logger:     logger,
			ChatID:     cfg.Chat.TargetChatID,
			FireHour:   cfg.Digest.FireHour,
			FireMinute: cfg.Digest.FireMinute,
		})
		go scheduler.Run(ctx)
	}

	eng := engine.New(engine.Config{
		Transport:  telegramCh,
		Generator:  gen,
		Bus:        messageBus,
		Moderation: policy.NewModeration(lex.Spam),
		Response:   policy.NewResponse(lex.Question, lex.Greeting),
		Scheduler:  scheduler,
		Recorder:   recorder,
		Logger:     logger,
		TargetChat: cfg.Chat.TargetChatID,
	})
	go eng.Run(ctx)

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Endpoint, metrics.Collector.Handler())
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info("metrics server listening", "port", cfg.Metrics.Port, "endpoint", cfg.Metrics.Endpoint)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "err", err)
			}
		}()
		defer srv.Close()
	}

	go func() {
		if err := telegramCh.Start(ctx, messageBus); err != nil {
			logger.Error("telegram channel error", "err", err)
		}
	}()

	logger.Info("gateway started. Press Ctrl+C to stop.")

	// Block until shutdown signal
	<-ctx.Done()
	logger.Info("shutting down gateway...")

	// Graceful shutdown with timeout
	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}
