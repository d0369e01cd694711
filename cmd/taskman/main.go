package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"taskman/internal/auth"
	"taskman/internal/config"
	"taskman/internal/server"
	"taskman/repository/db"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)
	logger.Info().Str("env", cfg.Env).Msg("task service starting")

	// Connect first: the retry loop absorbs a database that is still
	// starting. Migrations run once the database is known reachable, since
	// migrate.New dials immediately and never retries.
	storage, err := db.NewStorage(context.Background(), cfg.DatabaseURL, cfg.DBConnectRetries, cfg.DBConnectDelay, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer storage.Close()

	if err := db.Migration(cfg.DatabaseURL, cfg.MigratePath); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}
	logger.Info().Msg("migrations applied")

	codec := auth.NewCodec(cfg.JWTSecret, cfg.JWTExpiresIn)

	api := server.NewTaskAPI(storage, storage, codec, cfg, logger, storage)
	if api == nil {
		logger.Fatal().Msg("failed to initialize API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr()).Msg("server listening")
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		} else {
			logger.Info().Msg("graceful shutdown complete")
		}

	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("task service stopped")
}

// newLogger builds the process logger: human-readable console output in
// development, JSON elsewhere.
func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}
