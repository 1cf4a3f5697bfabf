// cmd/scheduler-daemon/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclients "immunization-engine/internal/common/aws"
	"immunization-engine/internal/common/config"
	"immunization-engine/internal/common/database"
	"immunization-engine/internal/common/logger"
	"immunization-engine/internal/common/observability"
	"immunization-engine/internal/dispatch"
	"immunization-engine/internal/engine/notify"
	"immunization-engine/internal/engine/projection"
	"immunization-engine/internal/models"
	"immunization-engine/internal/service"
	"immunization-engine/internal/storage"
)

const dispatchInterval = 5 * time.Minute

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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scheduler daemon...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("scheduler-daemon")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Repositories ---
	children := storage.NewPostgresChildren(pg.DB)
	records := storage.NewPostgresRecords(pg.DB)
	notifications := storage.NewPostgresNotifications(pg.DB)
	schedule := storage.NewPostgresSchedule(pg.DB)
	cache := storage.NewCatalogCache(redis.Client)

	// --- Catalog ---
	loader := service.NewCatalogLoader(schedule, cache, log)
	if err := loader.EnsureSeeded(ctx); err != nil {
		zapLog.Fatal("schedule seeding failed", zap.Error(err))
	}
	cat, err := loader.Load(ctx)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	zapLog.Info("Catalog loaded", zap.Int("entries", cat.Len()))

	// --- Engine ---
	projector := projection.NewProjector(cat, projection.Config{
		AnticipationDays:         cfg.Schedule.AnticipationDays,
		ToleranceDays:            cfg.Schedule.ToleranceDays,
		CompleteThresholdPercent: cfg.Schedule.CompleteThresholdPercent,
		ProgressThresholdPercent: cfg.Schedule.ProgressThresholdPercent,
	})
	scheduler := notify.NewScheduler(projector, notify.Config{
		ReminderLeadDays:          cfg.Notifications.ReminderLeadDays,
		BirthdayLeadDays:          cfg.Notifications.BirthdayLeadDays,
		OverdueRealertDays:        cfg.Notifications.OverdueRealertDays,
		CompleteRealertDays:       cfg.Notifications.CompleteRealertDays,
		ToleranceDays:             cfg.Schedule.ToleranceDays,
		CompleteThresholdPercent:  cfg.Schedule.CompleteThresholdPercent,
		ReactionSeverityThreshold: models.ReactionSeverity(cfg.Notifications.ReactionSeverityThreshold),
	})

	dailyPass := service.NewDailyPassService(children, records, notifications, scheduler, obs, log)

	// --- Dispatcher ---
	var dispatcher *dispatch.Dispatcher
	if cfg.Dispatch.Email.Enabled || cfg.Dispatch.SMS.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Dispatch.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client failed", zap.Error(err))
		}
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Dispatch.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client failed", zap.Error(err))
		}
		dispatcher = dispatch.New(cfg.Dispatch, pg.DB, notifications, sesClient, snsClient, log)
		zapLog.Info("Dispatcher initialized", zap.String("region", cfg.Dispatch.AWS.Region))
	} else {
		zapLog.Info("Dispatch disabled, notifications stay PENDING")
	}

	// --- Daily pass loop ---
	go func() {
		for {
			next := nextRunAt(time.Now(), cfg.App.DailyPassHour)
			zapLog.Info("Next daily pass scheduled", zap.Time("at", next))

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Until(next)):
			}

			if _, err := dailyPass.Run(ctx, time.Now().UTC()); err != nil {
				zapLog.Error("daily pass failed", zap.Error(err))
			}
		}
	}()

	// --- Dispatch loop ---
	if dispatcher != nil {
		go func() {
			ticker := time.NewTicker(dispatchInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := dispatcher.DispatchDue(ctx, time.Now().UTC()); err != nil {
						zapLog.Error("dispatch round failed", zap.Error(err))
					}
				}
			}
		}()
	}

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "ready",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping daemon...")
	cancel()

	zapLog.Info("Scheduler daemon stopped gracefully")
}

// nextRunAt returns the next occurrence of the configured hour, tomorrow when
// today's slot already passed.
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
