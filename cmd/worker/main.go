package main

import (
	"time"

	"go.uber.org/zap"

	"habitloop/internal/config"
	"habitloop/internal/repository"
	"habitloop/internal/service/push"
	"habitloop/internal/service/reminder"
	"habitloop/pkg/db"
	"habitloop/pkg/logger"
	"habitloop/pkg/mq"
	"habitloop/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting habitloop worker...")

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	dedup := reminder.NewDeduper(rdb, 48*time.Hour, log)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	log.Info("DB ready")

	// Repositories
	scheduleRepo := repository.NewScheduleRepository(dbConn, log)
	habitRepo := repository.NewHabitRepository(dbConn, log)
	tokenRepo := repository.NewDeviceTokenRepository(dbConn, log)

	sender := push.NewLogSender(log)

	dueHandler := reminder.NewDueHandler(scheduleRepo, habitRepo, tokenRepo, sender, dedup, log)

	log.Info("Init consumer", zap.String("queue", reminder.QueueName))
	consumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		reminder.QueueName,
		reminder.RoutingKey,
		log,
	)
	if err != nil {
		log.Fatal("Reminder consumer init failed", zap.Error(err))
	}
	consumer.SetHandler(dueHandler.Handle)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Reminder consumer crashed", zap.Error(err))
		}
	}()
	defer consumer.Close()

	log.Info("Worker running")
	select {}
}
