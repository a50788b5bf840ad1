package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"techcatalog/importer-service/internal/app/importer/config"
	"techcatalog/importer-service/internal/app/importer/repository"
	"techcatalog/importer-service/internal/app/importer/service"
	"techcatalog/importer-service/internal/app/importer/util"
	"techcatalog/pkg/logger"
)

func main() {
	// .env опционален, в Docker конфигурация приходит через environment
	_ = godotenv.Load()

	flag.Parse()
	batchFile := flag.Arg(0)
	if batchFile == "" {
		fmt.Fprintln(os.Stderr, "usage: importer <batch.json>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init("importer-service", cfg.LogLevel)

	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// pgx pool для категорий, gorm поверх той же БД для товаров
	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open gorm connection: %v", err)
	}

	// === ПОДКЛЮЧЕНИЕ К MONGODB ===
	// История прогонов best-effort: без Mongo импорт все равно выполняется
	var runRepo repository.RunRepository
	mongoClient, err := connectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		logger.Warn().Err(err).Msg("MongoDB unavailable, import history disabled")
	} else {
		defer mongoClient.Disconnect(ctx)
		runRepo = repository.NewRunRepository(mongoClient.Database(cfg.Mongo.Database))
	}

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()

	// === СБОРКА ПАЙПЛАЙНА ===
	importService := service.NewImportService(
		repository.NewCategoryRepository(pool),
		repository.NewProductRepository(gormDB),
		runRepo,
		repository.NewFileMediaStore(cfg.Media.Root),
		service.NewImageClient(cfg.Image.TimeoutSec),
		kafkaProducer,
	)

	run, err := importService.Run(ctx, batchFile)
	if err != nil {
		// Фатальны только ошибки чтения/парсинга входного файла
		log.Fatalf("Import aborted: %v", err)
	}

	fmt.Printf(
		"Processed %d records: %d imported (%d with image), %d skipped, %d failed\n",
		run.Total(), run.Imported, run.WithImage, run.Skipped, run.Failed,
	)
}

// connectDB устанавливает соединение с PostgreSQL через pgx connection pool
// Повторные попытки нужны при старте в Docker, когда БД еще поднимается
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = 5 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectMongo подключается к MongoDB с коротким таймаутом
func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}
