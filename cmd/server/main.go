package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sujalbistaa/petitions/internal/auth"
	"github.com/sujalbistaa/petitions/internal/config"
	"github.com/sujalbistaa/petitions/internal/db"
	routes "github.com/sujalbistaa/petitions/internal/http"
	"github.com/sujalbistaa/petitions/internal/logging"
	"github.com/sujalbistaa/petitions/internal/store"
	"github.com/sujalbistaa/petitions/internal/ws"
)

func main() {
	// Production sets variables directly, so a missing .env is fine.
	envFileErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	if envFileErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	database, err := db.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	s := store.New(database)

	// 2. Migrations and reference data
	logger.Info("running database migrations")
	if err := s.Migrate(); err != nil {
		return err
	}
	if err := s.SeedCategories(ctx, cfg.SeedCategories); err != nil {
		return err
	}

	// 3. WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// 4. Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	env := &routes.Env{
		Store:    s,
		Hub:      hub,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Log:      logger,
		PageSize: cfg.DefaultPageSize,
	}
	routes.SetupRoutes(ctx, router, env, routes.Options{CORSOrigin: cfg.CORSOrigin})

	// 5. Server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server exiting")
	return nil
}
