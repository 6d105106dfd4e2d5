// Package main runs the club portal HTTP server with websocket push and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campus-clubs/backend/config"
	"github.com/campus-clubs/backend/internal/announcements"
	"github.com/campus-clubs/backend/internal/auth"
	"github.com/campus-clubs/backend/internal/clubs"
	"github.com/campus-clubs/backend/internal/console"
	"github.com/campus-clubs/backend/internal/events"
	"github.com/campus-clubs/backend/internal/gallery"
	"github.com/campus-clubs/backend/internal/members"
	"github.com/campus-clubs/backend/internal/messages"
	"github.com/campus-clubs/backend/internal/metrics"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/internal/realtime"
	"github.com/campus-clubs/backend/internal/scheduler"
	"github.com/campus-clubs/backend/internal/worker"
	"github.com/campus-clubs/backend/pkg/database"
	"github.com/campus-clubs/backend/pkg/mailer"
	"github.com/campus-clubs/backend/pkg/queue"
	"github.com/campus-clubs/backend/pkg/redis"
	"github.com/campus-clubs/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	metrics.Register()

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: int32(cfg.Database.MaxConns)}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	checks := []healthCheck{{name: "database", ping: pool.Ping}}

	// Redis backs the job queue, the rate limiter and cross-instance push. Without it
	// jobs are dropped, limits are off and push reaches local connections only.
	var (
		jobs    queue.Enqueuer
		jobQ    *queue.Queue
		limiter middleware.WindowCounter
		hub     *realtime.Hub
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		jobQ = queue.NewQueue(rdb.Client, logger)
		jobs = jobQ
		limiter = middleware.NewRedisWindow(rdb.Client, "ratelimit")
		bus := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, bus, bus)
		checks = append(checks, healthCheck{name: "redis", ping: rdb.Healthy})
	} else {
		logger.Warn("redis not configured: background jobs and rate limiting disabled")
		hub = realtime.NewHub(logger, nil, nil)
	}

	var (
		bucket  storage.Bucket
		objects worker.ObjectRemover
	)
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			MediaBucket:     cfg.AWS.MediaBucket,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			bucket = s3Client
			objects = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	authRepo := auth.NewRepository(pool)
	eventRepo := events.NewRepository(pool)

	h := handlers{
		auth:          auth.NewHandler(authRepo, jwtService, bucket, jobs, cfg.Email.ResetURL, logger),
		clubs:         clubs.NewHandler(clubs.NewRepository(pool), bucket, jobs, logger),
		members:       members.NewHandler(members.NewRepository(pool), bucket, jobs, logger),
		events:        events.NewHandler(eventRepo, logger),
		announcements: announcements.NewHandler(announcements.NewRepository(pool), logger),
		messages:      messages.NewHandler(messages.NewRepository(pool), bucket, hub, cfg.Messages.PollInterval, logger),
		console:       console.NewHandler(console.NewRepository(pool), bucket, logger),
		gallery:       gallery.NewHandler(gallery.NewRepository(pool), bucket, jobs, logger),
		health:        healthHandler(logger, checks...),
		ws:            realtime.ServeWs(hub, jwtService, cfg.Server.CORSAllowedOrigins, logger),
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(cfg, h, jwtService, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker and scheduler, when not run as cmd/worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var sched *scheduler.Scheduler
	if cfg.Worker.InProcess && jobQ != nil {
		processor := worker.NewProcessor(jobQ, newMailer(cfg, logger), objects, logger)
		go processor.Run(workerCtx)

		sched = scheduler.New(scheduler.ConfigFrom(cfg.Worker, logger), eventRepo, authRepo, jobQ, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal("scheduler", zap.Error(err))
		}
		logger.Info("in-process worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newMailer(cfg *config.Config, logger *zap.Logger) *mailer.Mailer {
	return mailer.New(mailer.Config{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		User:        cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}, logger)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
