package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"habitloop/internal/handler"
	"habitloop/pkg/mq"
)

func NewRouter(
	scheduleHandler *handler.ScheduleHandler,
	progressHandler *handler.ProgressHandler,
	jwtSecret string,
	logger *zap.Logger,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/", AuthMiddleware(jwtSecret))

	auth.POST("/schedules", scheduleHandler.Create)
	auth.GET("/schedules", scheduleHandler.List)
	auth.GET("/schedules/:id", scheduleHandler.Get)
	auth.PATCH("/schedules/:id", scheduleHandler.Update)
	auth.DELETE("/schedules/:id", scheduleHandler.Delete)

	auth.POST("/progress", progressHandler.Create)
	auth.PATCH("/progress/:id", progressHandler.Update)
	auth.DELETE("/progress/:id", progressHandler.Delete)

	return r
}

// NewHealthRouter serves health and metrics only, for binaries without a
// public API surface.
func NewHealthRouter(logger *zap.Logger, db *pgxpool.Pool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
