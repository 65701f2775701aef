package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/config"
	"habitloop/internal/httpserver"
	"habitloop/internal/repository"
	"habitloop/internal/service/sweeper"
	"habitloop/pkg/db"
	"habitloop/pkg/logger"
	"habitloop/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting habitloop runner...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	scheduleRepo := repository.NewScheduleRepository(dbConn, log)
	lock := sweeper.NewRunLock(rdb, 23*time.Hour, log)
	sweep := sweeper.New(scheduleRepo, lock, log)

	// Missed-schedule sweep - runs daily at 00:00
	log.Info("Starting missed-schedule sweep (runs daily at 00:00)...")
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go func() {
		// Catch up on anything missed while the runner was down.
		if _, err := sweep.Sweep(context.Background()); err != nil {
			log.Error("Initial sweep failed", zap.Error(err))
		}

		now := time.Now()
		nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		initialDelay := nextMidnight.Sub(now)

		log.Info("Sweep will next run at midnight",
			zap.Duration("delay", initialDelay),
		)

		select {
		case <-sweepCtx.Done():
			return
		case <-time.After(initialDelay):
		}

		if _, err := sweep.Sweep(context.Background()); err != nil {
			log.Error("Sweep failed", zap.Error(err))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				log.Info("Sweep loop stopped")
				return
			case <-ticker.C:
				if _, err := sweep.Sweep(context.Background()); err != nil {
					log.Error("Sweep failed", zap.Error(err))
				}
			}
		}
	}()

	// HTTP server (health checks only)
	port := cfg.Server.Port
	if port == "" {
		port = "8084"
	}
	router := httpserver.NewHealthRouter(log, dbConn)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("habitloop runner is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habitloop runner gracefully...")
	sweepCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("habitloop runner shutdown complete")
}
