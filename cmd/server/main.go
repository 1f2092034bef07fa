package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/findit/backend/internal/push"
	"github.com/anonto42/findit/backend/internal/router"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/anonto42/findit/backend/pkg/config"
	"github.com/anonto42/findit/backend/pkg/firebase"
	"github.com/anonto42/findit/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.Close()

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Firebase")
	}

	deps := router.Dependencies{
		Config:   cfg,
		Postgres: db.Postgres,
		Mongo:    db.Mongo.Database(cfg.MongoDatabase),
		Verifier: firebaseApp.AuthClient,
		Messaging: func(ctx context.Context) (push.MessageSender, error) {
			client, err := firebaseApp.Messaging(ctx)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}

	if cfg.S3Bucket != "" {
		deps.S3, err = services.NewS3Client(ctx, services.MediaConfig{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 client")
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	config.SetupMiddleware(e, cfg)
	if err := router.SetupRoutes(ctx, e, deps); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up routes")
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("API server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
}
