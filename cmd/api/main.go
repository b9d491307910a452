package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/fdg312/food-advisor/internal/httpserver"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	printStartupBanner(cfg, logger)
	validateProductionConfig(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := httpserver.New(ctx, cfg, logger, httpserver.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("server init failed")
	}
	defer server.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

// newLogger пишет человекочитаемый вывод локально и JSON в остальных окружениях
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Str("service", "food-advisor").Logger()
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are only reported as "set" / "not set".
func printStartupBanner(cfg *config.Config, logger zerolog.Logger) {
	logger.Info().
		Str("env", cfg.Env).
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Msg("food advisor api")

	logger.Info().
		Str("runtime_url", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled)).
		Str("pooled", setOrNot(cfg.DatabaseURLPooled)).
		Str("direct", setOrNot(cfg.DatabaseURLDirect)).
		Bool("migrations_on_startup", cfg.RunMigrationsOnStartup).
		Msg("database")

	logger.Info().
		Str("auth_mode", cfg.AuthMode).
		Bool("auth_required", cfg.AuthRequired).
		Str("jwt_secret", secretStatus(cfg.JWTSecret, "change_me")).
		Int("jwt_ttl_minutes", cfg.JWTTTLMinutes).
		Msg("auth")

	blobEvt := logger.Info().Str("blob_mode", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal {
		level, code, msg := cfg.Blob.S3.Diagnostics()
		blobEvt = blobEvt.Str("s3", cfg.Blob.S3.DiagnosticsSummary()).Str("s3_status", code)
		if level == "WARN" {
			logger.Warn().Str("code", code).Msg("s3 " + msg)
		}
	}
	blobEvt.Int("reports_max_items", cfg.ReportsMaxItems).Msg("blob")

	aiEvt := logger.Info().Str("ai_mode", cfg.AI.Mode)
	if cfg.AI.Mode == "gemini" {
		aiEvt = aiEvt.
			Str("gemini_url", cfg.AI.GeminiAPIURL).
			Dur("min_interval", cfg.AI.MinInterval()).
			Int("max_attempts", cfg.AI.MaxAttempts).
			Dur("timeout", cfg.AI.Timeout())
	}
	aiEvt.Float64("portion_default_grams", cfg.PortionDefaultGrams).Msg("ai")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config, logger zerolog.Logger) {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			logger.Fatal().
				Str("missing", strings.Join(missing, ", ")).
				Msg("BLOB_MODE is 's3' but S3 config is incomplete")
		}
	}

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		logger.Fatal().Str("env", cfg.Env).Msg("JWT_SECRET must not be 'change_me' with AUTH_REQUIRED=1")
	}

	if isProd && cfg.DatabaseURL == "" {
		logger.Fatal().Str("env", cfg.Env).Msg("no DATABASE_URL configured")
	}

	if cfg.AI.Mode == "mock" && isProd {
		logger.Warn().Msg("AI_MODE=mock in a non-local environment, recommendations are canned")
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (default, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
