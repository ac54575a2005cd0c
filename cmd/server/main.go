// Command server starts the PayWatch Transaction API.
//
// Usage:
//
//	go run ./cmd/server
//
// All configuration comes from environment variables (see internal/config),
// with a .env file honored for local development. Notable variables:
//
//	SERVER_PORT   HTTP port to listen on (default: 8080)
//	STORE_DRIVER  memory or postgres (default: memory)
//	SEED_FILE     transaction JSON loaded on startup (default: data/seed.json)
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"paywatch/transaction-api/internal/api"
	"paywatch/transaction-api/internal/config"
	"paywatch/transaction-api/internal/domain"
	"paywatch/transaction-api/internal/reporting"
	"paywatch/transaction-api/internal/rules"
	"paywatch/transaction-api/internal/stats"
	"paywatch/transaction-api/internal/store"
	"paywatch/transaction-api/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)

	// ── Wire dependencies ─────────────────────────────────────────────────────
	s, cleanup, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("store init failed", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	engine := rules.New(cfg.Rules)
	statsSvc := stats.New(s)
	reportingSvc := reporting.New(s)
	notifier := webhook.New(cfg.Webhook.URLs, cfg.Webhook.MinScore)
	handler := api.NewHandler(s, engine, statsSvc, reportingSvc, notifier)
	router := api.NewRouter(handler)

	// ── Load seed data ────────────────────────────────────────────────────────
	if cfg.SeedFile != "" {
		if err := loadSeedData(s, engine, cfg.SeedFile); err != nil {
			// Non-fatal: the API works fine without seed data.
			slog.Warn("seed data not loaded", "file", cfg.SeedFile, "reason", err.Error())
		}
	}

	// ── Periodic stats summary ────────────────────────────────────────────────
	var scheduler *cron.Cron
	if cfg.SummarySchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.SummarySchedule, func() {
			logStatsSummary(statsSvc)
		})
		if err != nil {
			slog.Error("invalid stats summary schedule", "cron", cfg.SummarySchedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	// ── Start HTTP server ─────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server listening",
			"addr", srv.Addr,
			"store_driver", cfg.Store.Driver,
			"seed_file", cfg.SeedFile,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// setupLogging installs the process-wide slog default per configuration.
func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore builds the configured store backend. The returned cleanup
// closes any underlying connections and is safe to call once.
func openStore(cfg config.StoreConfig) (store.Store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return pg, func() { db.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

// loadSeedData reads a JSON file of transaction records, assesses each one,
// and persists them so the API starts with historical context.
func loadSeedData(s store.Store, e *rules.Engine, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var records []domain.TransactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	// Insert oldest-first so listings built during startup stay stable.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	ctx := context.Background()
	var loaded, skipped int
	for i := range records {
		rec := records[i]
		v := e.Evaluate(rules.Signals{
			Amount:         rec.Amount,
			OriginatingIP:  rec.OriginatingIP,
			Region:         rec.Region,
			FailedAttempts: rec.FailedAttempts,
		})

		tx := &domain.Transaction{
			TransactionRecord: rec,
			IsFraudPredicted:  v.IsFraud,
			FraudScore:        v.Score,
		}
		if err := s.Insert(ctx, tx); err != nil {
			skipped++
		} else {
			loaded++
		}
	}

	slog.Info("seed data loaded", "file", filePath, "loaded", loaded, "skipped", skipped)
	return nil
}

// logStatsSummary emits a one-line fraud overview, used by the cron job.
func logStatsSummary(svc *stats.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := svc.Summarize(ctx)
	if err != nil {
		slog.Error("stats summary failed", "error", err)
		return
	}
	slog.Info("stats summary",
		"total_transactions", st.Overview.TotalTransactions,
		"fraud_predicted", st.Overview.FraudPredictedCount,
		"fraud_reported", st.Overview.FraudReportedCount,
		"fraud_prediction_rate", st.Overview.FraudPredictionRate,
	)
}
