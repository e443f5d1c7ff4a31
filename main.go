package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"petzi-webhook/internal/config"
	"petzi-webhook/internal/history"
	"petzi-webhook/internal/history/history_api"
	"petzi-webhook/internal/kafka"
	applog "petzi-webhook/internal/logger"
	"petzi-webhook/internal/signature"
	"petzi-webhook/internal/webhook"
	"petzi-webhook/internal/webhook/db"
	"petzi-webhook/internal/webhook/webhook_api"
)

func openDatabase(cfg *config.Config, logger *applog.Logger) *bun.DB {
	dsn := cfg.Database.DSN

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
		}
		if err := sqldb.Ping(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		}
		logger.Info("DATABASE", "PostgreSQL connection successful")
		return bun.NewDB(sqldb, pgdialect.New())
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to SQLite: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("SQLite connection successful (%s)", dsn))
	return bun.NewDB(sqldb, sqlitedialect.New())
}

func main() {
	logger := applog.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting webhook receiver initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()

	bunDB := openDatabase(cfg, logger)
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if err := store.CreateTables(ctx); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to create tables: %v", err))
	}
	logger.Info("DATABASE", "Schema ready")

	var cache *history.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("REDIS", fmt.Sprintf("Redis unreachable at %s, daily-counts cache disabled: %v", cfg.Redis.Addr, err))
		} else {
			cache = history.NewCache(client)
			defer client.Close()
			logger.Info("REDIS", fmt.Sprintf("Daily-counts cache enabled (%s)", cfg.Redis.Addr))
		}
	}

	var publisher webhook.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
		logger.Info("KAFKA", fmt.Sprintf("Publishing successful ingestions to %s", cfg.Kafka.Topic))
	}

	var counts webhook.CountsCache
	if cache != nil {
		counts = cache
	}

	signer := signature.New(cfg.Webhook.Secret)
	webhookService := webhook.NewService(store, signer, publisher, cfg.Kafka.Topic, counts)
	historyService := history.NewService(&history.DB{Bun: bunDB}, cache)

	webhookHandler := &webhook_api.Handler{Service: webhookService}
	historyHandler := &history_api.Handler{Service: historyService}

	r := chi.NewRouter()
	r.Post("/webhook", webhookHandler.Receive)
	historyHandler.RegisterRoutes(r)
	logger.Info("ROUTER", "Routes registered: POST /webhook, GET /history, GET /history/{id}")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Webhook receiver running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		logger.Info("HTTP", "Webhook receiver shutdown complete")
	}
}
