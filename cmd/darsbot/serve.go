package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Samandar0813/darsbot/internal/admin"
	"github.com/Samandar0813/darsbot/internal/config"
	"github.com/Samandar0813/darsbot/internal/dialog"
	"github.com/Samandar0813/darsbot/internal/generate"
	"github.com/Samandar0813/darsbot/internal/metrics"
	"github.com/Samandar0813/darsbot/internal/quota"
	"github.com/Samandar0813/darsbot/internal/render"
	"github.com/Samandar0813/darsbot/internal/storage"
	"github.com/Samandar0813/darsbot/internal/storage/bolt"
	"github.com/Samandar0813/darsbot/internal/storage/jsonfile"
	"github.com/Samandar0813/darsbot/internal/storage/redis"
	"github.com/Samandar0813/darsbot/internal/systemd"
	"github.com/Samandar0813/darsbot/internal/telegram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the darsbot service",
	Long:  `Start the Telegram bot with its metrics endpoint and optional admin API.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting darsbot")

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Initialize Usage Ledger
	ledger := quota.NewLedger(
		store.Usage(),
		quota.Config{
			Limit:  cfg.Quota.Limit,
			Window: parseDuration(cfg.Quota.Window, quota.DefaultWindow),
		},
		logger,
	)

	logger.Info().
		Int("limit", cfg.Quota.Limit).
		Str("window", cfg.Quota.Window).
		Msg("Usage Ledger initialized")

	// Initialize Text Generator
	generator, err := buildGenerator(cfg.Generator, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}

	logger.Info().Str("provider", cfg.Generator.Provider).Msg("Text Generator initialized")

	// Initialize Document Renderer
	renderer := render.NewService(logger)

	// Initialize Dialogue Controller
	sessions := dialog.NewManager(
		parseDuration(cfg.Dialog.SessionIdleTimeout, dialog.DefaultIdleTimeout),
		logger,
	)
	defer sessions.Stop()

	controller := dialog.NewController(
		sessions,
		ledger,
		generator,
		renderer,
		dialog.Config{
			AdminUserID:     cfg.Admin.UserID,
			ChargeOnFailure: cfg.Quota.ChargeOnFailure,
		},
		logger,
	)

	logger.Info().Msg("Dialogue Controller initialized")

	// Initialize Telegram transport
	bot, err := telegram.New(
		telegram.Config{
			Token:       cfg.Telegram.Token,
			PollTimeout: cfg.Telegram.PollTimeout,
		},
		controller,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram transport: %w", err)
	}

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start Metrics Server: %w", err)
	}

	logger.Info().Str("addr", metricsAddr).Msg("Metrics Server started")

	// Initialize Admin Server (if enabled)
	var adminServer *admin.Server
	if cfg.Admin.Enabled {
		adminServer = admin.NewServer(
			admin.Config{
				ListenAddr: fmt.Sprintf("%s:%d", cfg.Admin.BindAddress, cfg.Admin.Port),
				Token:      cfg.Admin.Token,
			},
			ledger,
			logger,
		)
		if err := adminServer.Start(); err != nil {
			return fmt.Errorf("failed to start Admin Server: %w", err)
		}
		logger.Info().
			Str("addr", fmt.Sprintf("%s:%d", cfg.Admin.BindAddress, cfg.Admin.Port)).
			Msg("Admin Server started")
	}

	// Run the bot
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	botDone := make(chan error, 1)
	go func() {
		botDone <- bot.Run(ctx)
	}()

	logger.Info().Msg("Darsbot startup complete")
	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	// Wait for shutdown signal or transport failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, gracefully stopping...")
	case err := <-botDone:
		if err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("Telegram transport stopped")
		}
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	cancel()

	if adminServer != nil {
		if err := adminServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping Admin Server")
		}
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping Metrics Server")
	}

	logger.Info().Msg("Darsbot stopped")
	return nil
}

// openStorage opens the configured storage backend.
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "jsonfile":
		return jsonfile.Open(cfg.Path)
	case "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// buildGenerator creates the configured text generator, wrapped with the
// response cache when enabled.
func buildGenerator(cfg config.GeneratorConfig, logger zerolog.Logger) (generate.Generator, error) {
	var inner generate.Generator
	switch cfg.Provider {
	case "openai":
		inner = generate.NewOpenAIGenerator(generate.OpenAIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: parseDuration(cfg.Timeout, 60*time.Second),
		}, logger)
	case "template":
		inner = generate.NewTemplateGenerator()
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		return generate.NewCachingGenerator(inner, cfg.CacheSize, logger)
	}
	return inner, nil
}
