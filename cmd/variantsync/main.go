package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/variantsync/adjust"
	"github.com/use-agent/variantsync/api"
	"github.com/use-agent/variantsync/batch"
	"github.com/use-agent/variantsync/config"
	"github.com/use-agent/variantsync/jobs"
	"github.com/use-agent/variantsync/models"
	"github.com/use-agent/variantsync/pricing"
	"github.com/use-agent/variantsync/scraper"
	"github.com/use-agent/variantsync/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("variantsync starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"cdp", cfg.Browser.CDPURL != "",
		"maxAttempts", cfg.Adjust.MaxAttempts,
	)

	// Cancelled on shutdown; in-flight runs stop between variants.
	baseCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	// ── 3. Open the storefront session (attaches or launches Chrome) ─
	drv, err := scraper.Open(baseCtx, cfg.Browser, cfg.Storefront, slog.Default())
	if err != nil {
		slog.Error("failed to open storefront session", "error", err)
		os.Exit(1)
	}
	defer drv.Close()

	// ── 4. Adjustment workflow ──────────────────────────────────────
	// One orchestrator per session so strategy memory carries across runs.
	// The run store admits a single active run, so the session is never shared.
	orch := adjust.New(drv, adjust.Options{
		MaxAttempts:   cfg.Adjust.MaxAttempts,
		SettleDelay:   cfg.Adjust.SettleDelay,
		BackoffBase:   cfg.Adjust.BackoffBase,
		BackoffStep:   cfg.Adjust.BackoffStep,
		FallbackPrice: cfg.Adjust.FallbackPrice,
		Logger:        slog.Default().With("component", "adjust"),
	})
	runBatch := func(ctx context.Context, pages int, onPage func(models.PageResult)) []models.PageResult {
		ctrl := batch.NewController(drv, orch, batch.Options{
			StallDetection: cfg.Adjust.StallDetection,
			StallThreshold: cfg.Adjust.StallThreshold,
			OnPage:         onPage,
			Logger:         slog.Default().With("component", "batch"),
		})
		return ctrl.RunBatch(ctx, pages)
	}

	// ── 5. Run store, webhook delivery and runner ───────────────────
	store := jobs.NewStore(cfg.Jobs.MaxEntries, cfg.Jobs.TTL)
	defer store.Close()

	runner := jobs.NewRunner(baseCtx, store, runBatch, jobs.RunnerOptions{
		Notifier:      webhook.NewSender(cfg.Webhook.Timeout, slog.Default().With("component", "webhook")),
		WebhookURL:    cfg.Webhook.URL,
		WebhookSecret: cfg.Webhook.Secret,
	})

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(runner, pricing.NewInferer(cfg.Adjust.FallbackPrice), cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Stop the active run, then let its last events reach the webhook.
	cancelRuns()
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Webhook.DrainTimeout)
	defer cancelDrain()
	if err := runner.Drain(drainCtx); err != nil {
		slog.Warn("webhook deliveries still pending at shutdown", "error", err)
	}

	slog.Info("variantsync stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
