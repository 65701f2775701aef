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
	"habitloop/internal/handler"
	"habitloop/internal/httpserver"
	"habitloop/internal/repository"
	progresssvc "habitloop/internal/service/progress"
	"habitloop/internal/service/reminder"
	schedulesvc "habitloop/internal/service/schedule"
	"habitloop/pkg/db"
	"habitloop/pkg/logger"
	"habitloop/pkg/mq"
	"habitloop/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting habitloop api...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(context.Background(), dbConn, log); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// MQ publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	scheduleRepo := repository.NewScheduleRepository(dbConn, log)
	progressRepo := repository.NewProgressRepository(dbConn, log)
	habitRepo := repository.NewHabitRepository(dbConn, log)

	// Reminder pipeline (publish side)
	dedup := reminder.NewDeduper(rdb, 48*time.Hour, log)
	reminders := reminder.NewScheduler(publisher, dedup, cfg.Reminder.LeadMinutes, log)

	// Services
	scheduleService := schedulesvc.NewService(scheduleRepo, progressRepo, habitRepo, reminders, log)
	progressService := progresssvc.NewService(progressRepo, scheduleRepo, log)

	// HTTP
	scheduleHandler := handler.NewScheduleHandler(scheduleService, log)
	progressHandler := handler.NewProgressHandler(progressService, log)

	router := httpserver.NewRouter(scheduleHandler, progressHandler, cfg.JWT.Secret, log, dbConn, publisher)

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
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

	log.Info("habitloop api is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habitloop api gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("habitloop api shutdown complete")
}
