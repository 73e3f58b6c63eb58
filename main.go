// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/joho/godotenv"

	"github.com/AI-Template-SDK/senso-visibility/internal/api"
	"github.com/AI-Template-SDK/senso-visibility/internal/app"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/logger"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

func main() {
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("dev.env")
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env or dev.env file loaded")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("port", cfg.Port).
		Str("database_driver", cfg.Database.Driver).
		Msg("starting senso-visibility")

	for _, provider := range []string{"openai", "claude", "perplexity"} {
		if !cfg.HasProviderKey(provider) {
			log.Warn().Str("provider", provider).Msg("API key not loaded")
		}
	}

	ctx := context.Background()
	runStore, err := store.Open(ctx, cfg.Database, logger.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open run store")
	}
	defer runStore.Close()
	log.Info().Msg("run store ready")

	components := app.Build(cfg, runStore, logger.Component("visibility"))
	defer components.Close()

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		log.Info().Msg("running in development mode, signing key verification disabled")
	}

	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "senso-visibility",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inngest client")
	}

	alerter := workflows.NewAlerter(cfg.SlackWebhookURL, logger.Component("alerts"))

	visibilityProcessor := workflows.NewVisibilityProcessor(components.Factory, components.Analyzer, runStore, alerter, logger.Component("workflows"))
	visibilityProcessor.SetClient(client)
	visibilityProcessor.ProcessRun()

	scheduledProcessor := workflows.NewScheduledProcessor(cfg.ScheduledProfiles, runStore, alerter, logger.Component("scheduler"))
	scheduledProcessor.SetClient(client)
	scheduledProcessor.DailyVisibilityRuns()
	scheduledProcessor.WeeklyVisibilityDigest()
	log.Info().Int("scheduled_profiles", len(cfg.ScheduledProfiles)).Msg("workflows registered")

	router := api.NewRouter(api.Dependencies{
		Store:   runStore,
		Events:  client,
		Inngest: client.Serve(),
		Service: "senso-visibility",
		Log:     logger.Component("api"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("stopped")
}
