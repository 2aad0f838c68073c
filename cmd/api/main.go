package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
	analysisStore "github.com/MrJamesThe3rd/ascendia/internal/analysis/store"
	"github.com/MrJamesThe3rd/ascendia/internal/config"
	"github.com/MrJamesThe3rd/ascendia/internal/database"
	"github.com/MrJamesThe3rd/ascendia/internal/export"
	ascendiaHttp "github.com/MrJamesThe3rd/ascendia/internal/http"
	analysisHandler "github.com/MrJamesThe3rd/ascendia/internal/http/analysis"
	"github.com/MrJamesThe3rd/ascendia/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/ascendia/internal/http/export"
	investecHandler "github.com/MrJamesThe3rd/ascendia/internal/http/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	integrationStore "github.com/MrJamesThe3rd/ascendia/internal/integration/store"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/llm"
	"github.com/MrJamesThe3rd/ascendia/internal/secret"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	box, err := secret.NewBox(cfg.Security.EncryptionKey)
	if err != nil {
		slog.Error("invalid encryption key", "error", err)
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		slog.Error("failed to configure auth", "error", err)
		os.Exit(1)
	}

	generator, err := llm.NewOpenRouter(llm.Config{
		APIKey:  cfg.OpenRouter.APIKey,
		BaseURL: cfg.OpenRouter.BaseURL,
		Model:   cfg.OpenRouter.Model,
		Referer: cfg.App.BaseURL,
		Title:   cfg.App.Name,
		Timeout: cfg.OpenRouter.Timeout,
	})
	if err != nil {
		slog.Error("failed to configure openrouter", "error", err)
		os.Exit(1)
	}

	investecCfg := investec.Config{
		BaseURL:     cfg.Investec.Host,
		TokenURL:    cfg.Investec.TokenURL,
		Scopes:      cfg.Investec.Scopes,
		RefreshSkew: cfg.Investec.RefreshSkew,
		HTTPClient:  &http.Client{Timeout: cfg.Investec.Timeout},
	}

	var (
		integrationService = integration.NewService(integrationStore.New(db, box), investecCfg, nil)
		analysisService    = analysis.NewService(analysisStore.New(db), generator)
		exportService      = export.NewService(integrationService)
	)

	validate := validator.New()

	var (
		investecH = investecHandler.NewHandler(integrationService, validate)
		analysisH = analysisHandler.NewHandler(analysisService, integrationService, validate)
		exportH   = exportHandler.NewHandler(exportService)
	)

	router := ascendiaHttp.New(
		ascendiaHttp.Options{AllowedOrigins: cfg.Server.AllowedOrigins},
		verifier,
		investecH,
		analysisH,
		exportH,
	)

	// WriteTimeout has to outlive a full LLM completion.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.OpenRouter.Timeout + cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
