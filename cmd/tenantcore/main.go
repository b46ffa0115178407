package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/nexopanel/tenantcore/internal/adapter/bcrypt"
	"github.com/nexopanel/tenantcore/internal/adapter/fsm"
	"github.com/nexopanel/tenantcore/internal/adapter/otel"
	"github.com/nexopanel/tenantcore/internal/adapter/river"
	"github.com/nexopanel/tenantcore/internal/adapter/sqlite"
	"github.com/nexopanel/tenantcore/internal/app"

	handler "github.com/nexopanel/tenantcore/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "tenantcore.db")
	tenantDir := envOrDefault("TENANT_DATA_DIR", "tenants")

	ctx := context.Background()

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	planRepo := sqlite.NewPlanRepository(db)

	provisioner, err := sqlite.NewProvisioner(tenantDir)
	if err != nil {
		return fmt.Errorf("provisioner: %w", err)
	}

	riverClient, purgeWorker, err := river.Setup(ctx, db)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	// --- Application ---
	svc := app.NewTenantService(
		otel.NewTracingRepository(repo),
		provisioner,
		bcrypt.New(),
		fsm.New(),
		otel.NewTracingPublisher(river.NewPublisher(riverClient)),
	)
	planSvc := app.NewPlanService(planRepo)

	// The purge worker drives the daily cleanup through the same
	// lifecycle engine the API uses.
	purgeWorker.SetPurger(svc)

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("tenantcore", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("tenantcore", "0.1.0"))
	handler.Register(api, svc, planSvc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("tenantcore listening", "port", port)
		slog.Info("API docs", "url", "http://localhost:"+port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}

	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("river shutdown", "error", err)
	}

	slog.Info("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
