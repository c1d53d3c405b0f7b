package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/factcheck/internal/api"
	"github.com/bilgisen/factcheck/internal/archive"
	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/cache"
	"github.com/bilgisen/factcheck/internal/classifier"
	"github.com/bilgisen/factcheck/internal/config"
	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/notify"
	"github.com/bilgisen/factcheck/internal/storage"
	"github.com/bilgisen/factcheck/internal/workflow"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	output := "stdout"
	if cfg.LogFile != "" {
		output = cfg.LogFile
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: cfg.LogPretty,
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Str("env", cfg.Env).Msg("Starting application...")

	ctx := context.Background()

	repo, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer func() {
		log.Info().Msg("Closing record store...")
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing record store")
		}
	}()

	// Sessions live in Redis when configured, otherwise in process
	var sessions cache.SessionStore
	if cfg.RedisURL != "" {
		sessions, err = cache.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		sessions = cache.NewMemoryClient()
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing session store")
		}
	}()

	keywords := classifier.DefaultKeywords()
	if cfg.KeywordsFile != "" {
		keywords, err = classifier.LoadKeywords(cfg.KeywordsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.KeywordsFile).Msg("Failed to load classifier keywords")
		}
		log.Info().Str("path", cfg.KeywordsFile).Msg("Loaded classifier keywords")
	}
	cls := classifier.New(classifier.WithKeywords(keywords))

	authn := auth.New(repo, sessions,
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithCost(cfg.BcryptCost),
	)
	if cfg.SeedDefaultUsers {
		n, err := authn.SeedDefaults(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed default accounts")
		}
		if n > 0 {
			log.Info().Int("accounts", n).Msg("Seeded default accounts")
		}
	}

	var observers workflow.Observers
	if cfg.WebhookURL != "" {
		observers = append(observers, notify.NewWebhook(cfg.WebhookURL, cfg.WebhookTimeout))
		log.Info().Msg("Webhook notifications enabled")
	}
	if cfg.ArchiveEnabled() {
		client, err := archive.NewClient(ctx, archive.Config{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			Region:    cfg.R2Region,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize archive client")
		}
		observers = append(observers, archive.New(client, cfg.R2Bucket, ""))
		log.Info().Str("bucket", cfg.R2Bucket).Msg("Archive of finalized articles enabled")
	}
	events := workflow.NewAsyncObserver(observers, cfg.HTTPTimeout)

	svc := workflow.New(repo, cls,
		workflow.WithObserver(events),
		workflow.RequireReviewBeforeAdmin(cfg.AdminRequiresReview),
	)

	// Create Fiber app with custom config
	app := api.NewApp(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
	})
	api.SetupRoutes(app, api.NewHandlers(svc, authn, repo))

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := events.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Pending notifications abandoned")
	}

	log.Info().Msg("Server exited properly")
}
