package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Malcolm-Mukorera/campus-events-api/config"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/container"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/router"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	stores, err := container.OpenStores(ctx, cfg, logger, true)
	if err != nil {
		logger.WithError(err).Fatal("failed to open store")
	}
	defer stores.Close()

	c := &container.Container{
		Config: cfg,
		Logger: logger,
		Users:  stores.Users,
		Events: stores.Events,
		Hasher: helpers.NewBcryptHasher(0),
		Tokens: helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
	}

	// Redis (optional)
	if cfg.RedisAddr != "" {
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		defer func() { _ = rdb.Close() }()
		c.Redis = rdb
	} else {
		logger.Info("redis not configured; using in-process rate limits and no response cache")
	}

	// Elasticsearch (optional)
	index, err := container.OpenIndex(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to init search index")
	}
	c.Index = index

	// RabbitMQ email queue (optional)
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		defer pub.Close()
		c.Notifier = container.QueueNotifier(pub, cfg.AppName, cfg.AppURL)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewEngine(c),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
		return
	}
	logger.Info("server exited properly")
}
