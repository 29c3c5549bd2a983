package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ms-approvals/internal/analytics"
	analytics_api "ms-approvals/internal/analytics/api"
	"ms-approvals/internal/approvals/approval_api"
	"ms-approvals/internal/approvals/cache"
	approvaldb "ms-approvals/internal/approvals/db"
	"ms-approvals/internal/approvals/listener"
	"ms-approvals/internal/approvals/service"
	"ms-approvals/internal/auth"
	"ms-approvals/internal/config"
	"ms-approvals/internal/database/migrations"
	eventdb "ms-approvals/internal/events/db"
	"ms-approvals/internal/kafka"
	"ms-approvals/internal/logger"
	"ms-approvals/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func connectPostgres(cfg config.DatabaseConfig, logger *logger.Logger) *bun.DB {
	if cfg.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

// connectRedis returns nil when Redis is unreachable; the guardian view is then computed on every read
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logger.Logger) *redis.Client {
	client, err := cache.InitializeClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Redis unavailable, guardian view cache disabled: %v", err))
		return nil
	}
	logger.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return client
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Approval Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB := connectPostgres(cfg.Database, logger)
	defer bunDB.Close()

	if cfg.Migrations.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Migrations.Dir,
			AutoMigrate:   true,
		}, logger)
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
		}
		logger.Info("MIGRATION", "✅ Database schema up to date")
	}

	var viewCache service.ViewCache
	if redisClient := connectRedis(ctx, cfg.Redis, logger); redisClient != nil {
		defer redisClient.Close()
		viewCache = cache.NewRedisViewCache(redisClient, cfg.Views.CacheTTL)
	}

	var publisher service.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
		logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))

		requiredTopics := []string{
			cfg.Kafka.Topics.EventPublished,
			cfg.Kafka.Topics.EventDeleted,
			cfg.Kafka.Topics.ApprovalResponded,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	}

	events := &eventdb.DB{Bun: bunDB}
	approvalService := service.NewApprovalService(
		&approvaldb.DB{Bun: bunDB},
		events,
		viewCache,
		publisher,
		utils.SystemClock{},
		logger,
		service.Options{
			RespondedTopic:  cfg.Kafka.Topics.ApprovalResponded,
			PastEventsLimit: cfg.Views.PastEventsLimit,
		},
	)

	var consumers sync.WaitGroup
	if cfg.Kafka.Enabled {
		l := listener.NewListener(approvalService, logger)
		subscriptions := map[string]kafka.MessageHandler{
			cfg.Kafka.Topics.EventPublished: l.HandleEventPublished,
			cfg.Kafka.Topics.EventDeleted:   l.HandleEventDeleted,
		}
		for topic, handler := range subscriptions {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, logger)
			consumers.Add(1)
			go func(handler kafka.MessageHandler) {
				defer consumers.Done()
				defer consumer.Close()
				consumer.Start(ctx, handler)
			}(handler)
		}
	}

	verifier, err := auth.NewVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("AUTH", fmt.Sprintf("Failed to configure token verification: %v", err))
	}

	approvalHandler := approval_api.NewHandler(approvalService, logger)
	analyticsHandler := analytics_api.NewHandler(
		analytics.NewService(analytics.NewDB(bunDB), events, logger),
		logger,
		cfg.Auth.AdminIDs,
	)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger)

	// --- Public Routes ---
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		logger.Info("AUTH", "Token middleware applied to protected API routes")

		approvalHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Guardian approval routes registered under /api")

		analyticsHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Approval summary routes registered under /api/admin")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Approval Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}

	cancel()
	consumers.Wait()
	logger.Info("APP", "✅ Approval Service shutdown complete")
}
