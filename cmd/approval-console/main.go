// cmd/approval-console/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"approval-console/internal/approvals/audit"
	"approval-console/internal/approvals/client"
	"approval-console/internal/approvals/notifier"
	"approval-console/internal/approvals/pending"
	"approval-console/internal/approvals/session"
	"approval-console/internal/approvals/transition"
	"approval-console/internal/common/aws"
	"approval-console/internal/common/config"
	"approval-console/internal/common/database"
	"approval-console/internal/common/logger"
	"approval-console/internal/common/observability"
	"approval-console/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting approval console...",
		zap.String("environment", cfg.App.Environment),
		zap.String("approvalsBaseURL", cfg.Approvals.BaseURL),
	)

	obs := observability.New("approval-console")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Remote approvals service client ---
	api := client.NewHTTPClient(
		cfg.Approvals.BaseURL,
		time.Duration(cfg.Approvals.RequestTimeout)*time.Millisecond,
		log,
	)

	// --- Decision hooks: audit trail, applicant notifications, badge cache ---
	var hooks []transition.DecisionHook

	var pg *database.PostgresClient
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		hooks = append(hooks, audit.NewRecorder(pg.DB, log))
		zapLog.Info("Audit trail enabled")
	}

	if cfg.Notifications.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		hooks = append(hooks, notifier.New(
			sesClient, snsClient,
			cfg.Notifications.SenderEmail, cfg.Notifications.SMSSenderID,
			log,
		))
		zapLog.Info("Applicant decision notifications enabled")
	}

	var pendingSvc *pending.Service
	if cfg.Database.Redis.Address != "" {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis client failed", zap.Error(err))
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, pending summary cache disabled", zap.Error(err))
			pendingSvc = pending.NewService(api, nil, 0, log)
		} else {
			ttl := time.Duration(cfg.Approvals.PendingCacheTTL) * time.Second
			pendingSvc = pending.NewService(api, rdb.Client, ttl, log)
			hooks = append(hooks, pendingSvc)
		}
	} else {
		pendingSvc = pending.NewService(api, nil, 0, log)
	}

	// --- Session controllers, one per console tab ---
	deps := session.Dependencies{
		API:            api,
		Logger:         log,
		Hooks:          hooks,
		SearchDebounce: time.Duration(cfg.Approvals.SearchDebounce) * time.Millisecond,
	}
	loans := session.NewController("loan", deps)
	defer loans.Close()
	cards := session.NewController("card", deps)
	defer cards.Close()

	// --- HTTP server ---
	srv := server.New(loans, cards, pendingSvc, log)
	mux := srv.Routes()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Instrument(obs, mux),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown failed", zap.Error(err))
	}
}
