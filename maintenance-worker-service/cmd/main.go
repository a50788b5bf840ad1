package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/config"
	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/handler"
	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/processor"
	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/repository"
	"techcatalog/maintenance-worker-service/internal/app/maintenance-worker/service"
	"techcatalog/pkg/logger"
)

func main() {
	cleanupNow := flag.Bool("cleanup-now", false, "run the duplicate category cleanup once and exit")
	flag.Parse()

	// .env опционален, в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init("maintenance-worker", cfg.LogLevel)

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// pgxpool для поиска дубликатов категорий, gorm для переноса товаров
	pool, err := connectDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	logger.Info().Msg("Successfully connected to PostgreSQL")

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open gorm connection: %v", err)
	}

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Worker сбрасывает кеш категорий catalog-service после чистки
	redisClient, err := connectRedis(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info().Msg("Successfully connected to Redis")

	categoryRepo := repository.NewCategoryCleanupRepository(pool)
	productRepo := repository.NewProductRepository(gormDB)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cleanupService := service.NewCleanupService(categoryRepo, productRepo, cacheRepo)

	// Разовый прогон для ручного запуска и миграций
	if *cleanupNow {
		report, err := cleanupService.MergeDuplicateCategories(context.Background())
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		logger.Info().
			Int("merged_categories", report.MergedCategories).
			Int64("moved_products", report.MovedProducts).
			Msg("One-off cleanup finished")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === KAFKA CONSUMER ===
	// События каталога инвалидируют кеш категорий
	consumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		cleanupService,
	)
	consumer.Start(ctx)

	// === CRON SCHEDULER ===
	scheduler := processor.NewCronScheduler(cleanupService)
	if err := scheduler.Start(ctx, cfg.Cron.CleanupCategories); err != nil {
		log.Fatalf("Failed to start cron scheduler: %v", err)
	}

	// === HEALTH CHECK СЕРВЕР ===
	healthHandler := handler.NewHealthCheckHandler(gormDB, redisClient)
	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	healthServer := &http.Server{
		Addr:    ":8080",
		Handler: mux,
	}

	go func() {
		logger.Info().Str("addr", healthServer.Addr).Msg("Starting health check server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start health server: %v", err)
		}
	}()

	logger.Info().Msg("Maintenance Worker started")

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Maintenance Worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Health server forced to shutdown")
	}

	scheduler.Stop()
	cancel()
	consumer.Stop()

	logger.Info().Msg("Maintenance Worker stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL через pgx connection pool
// Retry logic с 10 попытками для устойчивости при запуске в Docker
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
	}

	return pool, nil
}

// connectRedis подключается к Redis с retry
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var err error
	for i := 0; i < 10; i++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			return client, nil
		}
		log.Printf("Failed to connect to Redis (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts: %w", err)
}
